package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardspec/extractor/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestCreateAndGetRun(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	created, err := st.CreateRun(ctx, "prod-1")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.RunStatusRunning, created.Status)

	got, err := st.GetRun(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "prod-1", got.ProductID)
	assert.Equal(t, model.RunStatusRunning, got.Status)
	assert.Nil(t, got.Result)
}

func TestCompleteRunPersistsResult(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	created, err := st.CreateRun(ctx, "prod-1")
	require.NoError(t, err)

	result := &model.RunResult{
		ExtractedData: map[string]any{
			"name": "BOARD",
			"memory": map[string]any{
				"size": "8GB",
			},
		},
		MissingHistory:       []int{3, 1, 0},
		LowConfidenceHistory: []int{2, 0, 0},
		InputTokens:          1200,
		OutputTokens:         400,
		DurationMS:           8500,
	}
	require.NoError(t, st.CompleteRun(ctx, created.ID, model.RunStatusComplete, result))

	got, err := st.GetRun(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "BOARD", got.Result.ExtractedData["name"])
	assert.Equal(t, []int{3, 1, 0}, got.Result.MissingHistory)
	assert.Equal(t, 1200, got.Result.InputTokens)
}

func TestCompleteRunFailedStatus(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	created, err := st.CreateRun(ctx, "prod-1")
	require.NoError(t, err)

	result := &model.RunResult{Error: "critical features missing: name"}
	require.NoError(t, st.CompleteRun(ctx, created.ID, model.RunStatusFailed, result))

	got, err := st.GetRun(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "critical features missing: name", got.Result.Error)
}

func TestCompleteRunUnknownID(t *testing.T) {
	st := newTestStore(t)
	err := st.CompleteRun(context.Background(), "missing-id", model.RunStatusComplete, &model.RunResult{})
	assert.Error(t, err)
}

func TestGetRunUnknownID(t *testing.T) {
	st := newTestStore(t)
	_, err := st.GetRun(context.Background(), "missing-id")
	assert.Error(t, err)
}

func TestListRunsLimitAndOrder(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	for i := 0; i < 5; i++ {
		_, err := st.CreateRun(ctx, "prod-1")
		require.NoError(t, err)
	}

	runs, err := st.ListRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	all, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5, "non-positive limit falls back to the default")
}

func TestMigrateIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Migrate(context.Background()))
	require.NoError(t, st.Migrate(context.Background()))
}
