// Package extractor implements the iterative feature-extraction workflow:
// extract, then search-and-generate for missing attributes, then
// search-and-refine low-confidence ones, until the record is complete or no
// further progress is possible.
package extractor

import (
	"time"

	"github.com/boardspec/extractor/internal/feature"
	"github.com/boardspec/extractor/internal/model"
)

// UsageRecord is one node invocation's cost: tokens consumed and wall time
// in seconds. Nodes that make no completion call record zero tokens.
type UsageRecord struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TimeTaken    float64 `json:"time_taken"`
}

// State is the mutable record threaded through one workflow run. It lives
// only for the run's duration; nothing here is shared between runs.
type State struct {
	ProductID string
	RawText   string

	// ExtractedFeatures accumulates across rounds. A filled leaf is only
	// ever replaced by one of equal or higher confidence.
	ExtractedFeatures *model.Tree

	// MissingFeatures and LowConfidenceFeatures hold dot-separated paths,
	// recomputed after every mutation of ExtractedFeatures.
	MissingFeatures       []string
	LowConfidenceFeatures []string

	// Count histories are append-only, one entry per round, and feed
	// no-progress detection.
	MissingFeatureCounts       []int
	LowConfidenceFeatureCounts []int

	// Attempt counters bound how many search+generate / search+refine
	// cycles each feature category may consume.
	MissingAttempts       int
	LowConfidenceAttempts int

	// ExcludeDomains accumulates source domains already consulted.
	// Append-only; duplicates are harmless for exclusion purposes.
	ExcludeDomains []string

	// Usage maps node name to the cost records of its invocations.
	Usage map[string][]UsageRecord

	// Err, once set, short-circuits the workflow to End at the next
	// decision. It is never overwritten within a run.
	Err string
}

func newState(productID, rawText string) *State {
	return &State{
		ProductID: productID,
		RawText:   rawText,
		Usage:     map[string][]UsageRecord{},
	}
}

// setError records the first error of the run; later errors are dropped so
// the root cause survives to the final result.
func (s *State) setError(msg string) {
	if s.Err == "" {
		s.Err = msg
	}
}

// addUsage appends one cost record for the named node.
func (s *State) addUsage(node string, inputTokens, outputTokens int, start time.Time) {
	s.Usage[node] = append(s.Usage[node], UsageRecord{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TimeTaken:    time.Since(start).Seconds(),
	})
}

// reclassify recomputes the missing and low-confidence path lists from the
// current tree.
func (s *State) reclassify(threshold float64) {
	s.MissingFeatures = feature.FindMissing(s.ExtractedFeatures)
	s.LowConfidenceFeatures = feature.FindLowConfidence(s.ExtractedFeatures, threshold)
}

// appendCounts records the current list sizes into the round histories.
func (s *State) appendCounts() {
	s.MissingFeatureCounts = append(s.MissingFeatureCounts, len(s.MissingFeatures))
	s.LowConfidenceFeatureCounts = append(s.LowConfidenceFeatureCounts, len(s.LowConfidenceFeatures))
}

// Result is what a workflow run hands back to the caller: the thresholded
// projection, cost accounting, progress histories, and the run error if any.
// Partial progress survives an error; it is returned, not discarded.
type Result struct {
	ProductID            string                   `json:"product_id"`
	ExtractedData        map[string]any           `json:"extracted_data"`
	Usage                map[string][]UsageRecord `json:"usage"`
	MissingHistory       []int                    `json:"missing_feature_count_history"`
	LowConfidenceHistory []int                    `json:"low_confidence_feature_count_history"`
	Error                string                   `json:"error,omitempty"`
}

// TotalTokens sums token usage across all node invocations.
func (r *Result) TotalTokens() (input, output int) {
	for _, records := range r.Usage {
		for _, rec := range records {
			input += rec.InputTokens
			output += rec.OutputTokens
		}
	}
	return input, output
}
