package extractor

import (
	"context"

	"go.uber.org/zap"

	"github.com/boardspec/extractor/internal/docstore"
	"github.com/boardspec/extractor/internal/feature"
	"github.com/boardspec/extractor/pkg/llm"
	"github.com/boardspec/extractor/pkg/tavily"
)

// nodeName identifies a workflow step. The names double as usage-map keys in
// the final result, so they are part of the output format.
type nodeName string

const (
	nodeStoreAndChunk       nodeName = "store_and_chunk_data"
	nodeExtract             nodeName = "extract_features"
	nodeSearchMissing       nodeName = "search_missing_features"
	nodeGenerateMissing     nodeName = "generate_missing_features"
	nodeSearchLowConfidence nodeName = "search_low_confidence_features"
	nodeRefineLowConfidence nodeName = "refine_low_confidence_features"
	nodeEnd                 nodeName = "end"
)

const (
	// chunkRetrievalLimit bounds how many stored chunks feed each prompt.
	chunkRetrievalLimit = 7

	// discoveryQuery is the retrieval query for the initial extraction
	// pass; it names the attribute groups the schema cares about.
	discoveryQuery = "name, manufacturer, form factor, specifications processor memory storage operating system certifications"

	completionTemperature = 0.1
	completionMaxTokens   = 2048
)

// Config bounds one workflow run. Zero attempt limits are honored as given:
// a zero means that phase never runs, it is not replaced with a default.
type Config struct {
	ModelName                 string
	MaxMissingFeatureAttempts int
	MaxLowConfidenceAttempts  int
	ConfidenceThreshold       float64
	MaxNoProgressAttempts     int
}

// DefaultConfig returns the standard run bounds.
func DefaultConfig() Config {
	return Config{
		ModelName:                 "gpt-4o",
		MaxMissingFeatureAttempts: 3,
		MaxLowConfidenceAttempts:  3,
		ConfidenceThreshold:       0.7,
		MaxNoProgressAttempts:     2,
	}
}

// nodeFunc mutates the run state. Failures are recorded on the state rather
// than returned; the decision step routes an errored run to the end.
type nodeFunc func(ctx context.Context, s *State)

// Engine executes the extraction workflow over its collaborators. It holds
// no per-run state and is safe for concurrent Run calls.
type Engine struct {
	cfg    Config
	llm    llm.CompletionClient
	search tavily.Client
	docs   docstore.Store

	nodes map[nodeName]nodeFunc
	// next computes the successor of each node after it has run. Plain
	// edges ignore the state; decision edges inspect it.
	next map[nodeName]func(s *State) nodeName
}

// NewEngine wires the workflow graph. Only ModelName falls back to a default
// when unset; numeric bounds are taken literally so callers can disable a
// phase with zero.
func NewEngine(cfg Config, completion llm.CompletionClient, search tavily.Client, docs docstore.Store) *Engine {
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultConfig().ModelName
	}
	e := &Engine{
		cfg:    cfg,
		llm:    completion,
		search: search,
		docs:   docs,
	}
	e.nodes = map[nodeName]nodeFunc{
		nodeStoreAndChunk:       instrument(nodeStoreAndChunk, e.storeAndChunkData),
		nodeExtract:             instrument(nodeExtract, e.extractFeatures),
		nodeSearchMissing:       instrument(nodeSearchMissing, e.searchMissingFeatures),
		nodeGenerateMissing:     instrument(nodeGenerateMissing, e.generateMissingFeatures),
		nodeSearchLowConfidence: instrument(nodeSearchLowConfidence, e.searchLowConfidenceFeatures),
		nodeRefineLowConfidence: instrument(nodeRefineLowConfidence, e.refineLowConfidenceFeatures),
	}
	e.next = map[nodeName]func(s *State) nodeName{
		nodeStoreAndChunk:       func(*State) nodeName { return nodeExtract },
		nodeExtract:             e.decideNext,
		nodeSearchMissing:       func(*State) nodeName { return nodeGenerateMissing },
		nodeGenerateMissing:     e.decideNext,
		nodeSearchLowConfidence: func(*State) nodeName { return nodeRefineLowConfidence },
		nodeRefineLowConfidence: e.decideNext,
	}
	return e
}

// instrument wraps a node with entry/exit logging.
func instrument(name nodeName, fn nodeFunc) nodeFunc {
	return func(ctx context.Context, s *State) {
		zap.L().Debug("workflow node starting",
			zap.String("node", string(name)),
			zap.String("product_id", s.ProductID))
		fn(ctx, s)
		if s.Err != "" {
			zap.L().Warn("workflow node finished with run error set",
				zap.String("node", string(name)),
				zap.String("product_id", s.ProductID),
				zap.String("error", s.Err))
			return
		}
		zap.L().Debug("workflow node finished",
			zap.String("node", string(name)),
			zap.String("product_id", s.ProductID),
			zap.Int("missing", len(s.MissingFeatures)),
			zap.Int("low_confidence", len(s.LowConfidenceFeatures)))
	}
}

// Run executes the full workflow for one product and returns its result.
// Collaborator failures end the run early with whatever the record holds at
// that point; Run itself returns an error only if it cannot produce a result
// at all.
func (e *Engine) Run(ctx context.Context, productID, rawText string) *Result {
	s := newState(productID, rawText)
	zap.L().Info("extraction workflow starting", zap.String("product_id", productID))

	for cur := nodeStoreAndChunk; cur != nodeEnd; {
		if err := ctx.Err(); err != nil {
			s.setError("workflow canceled: " + err.Error())
			break
		}
		e.nodes[cur](ctx, s)
		cur = e.next[cur](s)
	}
	return e.finalize(s)
}

// decideNext picks the next phase after a completion node. Order matters:
// an error beats everything, stalled progress beats remaining work, and
// missing features are pursued before low-confidence ones.
func (e *Engine) decideNext(s *State) nodeName {
	if s.Err != "" {
		return nodeEnd
	}

	// No-progress check: stop when the missing count has not dropped over
	// the last MaxNoProgressAttempts rounds.
	counts := s.MissingFeatureCounts
	window := e.cfg.MaxNoProgressAttempts
	if len(counts) >= window+1 {
		current := counts[len(counts)-1]
		previous := counts[len(counts)-1-window]
		if current >= previous {
			zap.L().Info("no progress on missing features, ending workflow",
				zap.String("product_id", s.ProductID),
				zap.Ints("missing_counts", counts))
			return nodeEnd
		}
	}

	if len(s.MissingFeatures) > 0 && s.MissingAttempts < e.cfg.MaxMissingFeatureAttempts {
		return nodeSearchMissing
	}
	if len(s.LowConfidenceFeatures) > 0 && s.LowConfidenceAttempts < e.cfg.MaxLowConfidenceAttempts {
		return nodeSearchLowConfidence
	}
	return nodeEnd
}

// finalize projects the run state into the caller-facing result. Partial
// data survives an errored run.
func (e *Engine) finalize(s *State) *Result {
	res := &Result{
		ProductID:            s.ProductID,
		ExtractedData:        feature.ProjectByConfidence(s.ExtractedFeatures, e.cfg.ConfidenceThreshold),
		Usage:                s.Usage,
		MissingHistory:       s.MissingFeatureCounts,
		LowConfidenceHistory: s.LowConfidenceFeatureCounts,
		Error:                s.Err,
	}
	if res.Error != "" {
		zap.L().Error("extraction workflow ended with error",
			zap.String("product_id", s.ProductID),
			zap.String("error", res.Error))
		return res
	}
	in, out := res.TotalTokens()
	zap.L().Info("extraction workflow complete",
		zap.String("product_id", s.ProductID),
		zap.Int("input_tokens", in),
		zap.Int("output_tokens", out),
		zap.Ints("missing_counts", res.MissingHistory))
	return res
}
