package model

import "time"

// RunStatus tracks an extraction run through the run log.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one logged extraction run.
type Run struct {
	ID        string     `json:"id"`
	ProductID string     `json:"product_id"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult is the persisted outcome of a run: the final projection plus
// cost and progress accounting. In-flight workflow state is never persisted,
// only this summary after the run ends.
type RunResult struct {
	ExtractedData        map[string]any `json:"extracted_data"`
	Error                string         `json:"error,omitempty"`
	MissingHistory       []int          `json:"missing_history"`
	LowConfidenceHistory []int          `json:"low_confidence_history"`
	InputTokens          int            `json:"input_tokens"`
	OutputTokens         int            `json:"output_tokens"`
	DurationMS           int64          `json:"duration_ms"`
}
