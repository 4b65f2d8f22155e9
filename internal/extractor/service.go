package extractor

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/boardspec/extractor/internal/model"
	"github.com/boardspec/extractor/internal/store"
)

// Service is the concurrency-bounded front door to the workflow engine. Each
// Extract call takes a permit, runs the workflow on a fresh state, and logs
// the outcome to the run store.
type Service struct {
	engine  *Engine
	runs    store.Store
	permits *semaphore.Weighted
}

// NewService wraps the engine with a permit pool of size maxConcurrent and
// the given run log. A run log of nil is allowed; outcomes are then only
// returned, not persisted.
func NewService(engine *Engine, runs store.Store, maxConcurrent int) *Service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Service{
		engine:  engine,
		runs:    runs,
		permits: semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Extract runs the full workflow for one product. It blocks until a permit
// is free or the context is canceled. Workflow-level failures come back
// inside the result's Error field; the returned error covers only failures
// to run at all.
func (s *Service) Extract(ctx context.Context, productID, rawText string) (*Result, error) {
	if err := s.permits.Acquire(ctx, 1); err != nil {
		return nil, eris.Wrap(err, "extractor: acquire run permit")
	}
	defer s.permits.Release(1)

	var runID string
	if s.runs != nil {
		run, err := s.runs.CreateRun(ctx, productID)
		if err != nil {
			return nil, eris.Wrap(err, "extractor: create run record")
		}
		runID = run.ID
	}

	start := time.Now()
	result := s.engine.Run(ctx, productID, rawText)

	if s.runs != nil {
		s.record(ctx, runID, result, time.Since(start))
	}
	return result, nil
}

// record writes the run outcome to the run log. Logging failures are
// reported but do not fail the extraction; the caller already has the
// result in hand.
func (s *Service) record(ctx context.Context, runID string, result *Result, elapsed time.Duration) {
	status := model.RunStatusComplete
	if result.Error != "" {
		status = model.RunStatusFailed
	}
	in, out := result.TotalTokens()
	err := s.runs.CompleteRun(ctx, runID, status, &model.RunResult{
		ExtractedData:        result.ExtractedData,
		Error:                result.Error,
		MissingHistory:       result.MissingHistory,
		LowConfidenceHistory: result.LowConfidenceHistory,
		InputTokens:          in,
		OutputTokens:         out,
		DurationMS:           elapsed.Milliseconds(),
	})
	if err != nil {
		zap.L().Error("failed to record run outcome",
			zap.String("run_id", runID),
			zap.String("product_id", result.ProductID),
			zap.Error(err))
	}
}
