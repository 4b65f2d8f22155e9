// Package store persists a log of extraction runs. Only final outcomes are
// written; in-flight workflow state lives and dies in memory.
package store

import (
	"context"

	"github.com/boardspec/extractor/internal/model"
)

// Store is the run-log interface used by the CLI around each extraction.
type Store interface {
	CreateRun(ctx context.Context, productID string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
