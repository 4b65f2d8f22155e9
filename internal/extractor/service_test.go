package extractor

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/boardspec/extractor/internal/docstore"
	"github.com/boardspec/extractor/internal/model"
)

// fakeRunStore is an in-memory run log.
type fakeRunStore struct {
	mu     sync.Mutex
	nextID int
	runs   map[string]*model.Run
}

func newFakeRunStore() *fakeRunStore {
	return &fakeRunStore{runs: map[string]*model.Run{}}
}

func (f *fakeRunStore) CreateRun(_ context.Context, productID string) (*model.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	run := &model.Run{
		ID:        fmt.Sprintf("run-%d", f.nextID),
		ProductID: productID,
		Status:    model.RunStatusRunning,
	}
	f.runs[run.ID] = run
	return run, nil
}

func (f *fakeRunStore) CompleteRun(_ context.Context, runID string, status model.RunStatus, result *model.RunResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[runID]
	if !ok {
		return fmt.Errorf("no such run %s", runID)
	}
	run.Status = status
	run.Result = result
	return nil
}

func (f *fakeRunStore) GetRun(_ context.Context, runID string) (*model.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs[runID], nil
}

func (f *fakeRunStore) ListRuns(_ context.Context, _ int) ([]model.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Run, 0, len(f.runs))
	for _, r := range f.runs {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRunStore) Migrate(context.Context) error { return nil }
func (f *fakeRunStore) Close() error                  { return nil }

func happyEngine() *Engine {
	docs := &mockDocstore{}
	search := &mockSearch{}
	comp := &mockCompletion{}

	docs.On("StoreRaw", mock.Anything, mock.Anything, mock.Anything).Return("doc", nil)
	docs.On("RetrieveRelevant", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]docstore.Chunk{{Text: "chunk"}}, nil)
	comp.On("Generate", mock.Anything, mock.Anything).Return(completion(completeExtraction, 10, 5), nil)

	return NewEngine(testConfig(), comp, search, docs)
}

func TestServiceExtractRecordsCompletedRun(t *testing.T) {
	runs := newFakeRunStore()
	svc := NewService(happyEngine(), runs, 2)

	result, err := svc.Extract(context.Background(), "prod-1", "raw text")
	require.NoError(t, err)
	require.Empty(t, result.Error)
	assert.Equal(t, "JETSON ORIN NANO", result.ExtractedData["name"])

	listed, err := runs.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, model.RunStatusComplete, listed[0].Status)
	require.NotNil(t, listed[0].Result)
	assert.Equal(t, 10, listed[0].Result.InputTokens)
	assert.Equal(t, 5, listed[0].Result.OutputTokens)
}

func TestServiceExtractRecordsFailedRun(t *testing.T) {
	docs := &mockDocstore{}
	search := &mockSearch{}
	comp := &mockCompletion{}

	failedExtraction := `{
		"name": {"value": "Not available", "confidence": 0},
		"manufacturer": {"value": "ACME", "confidence": 0.9},
		"form_factor": {"value": "SBC", "confidence": 0.9}
	}`
	docs.On("StoreRaw", mock.Anything, mock.Anything, mock.Anything).Return("doc", nil)
	docs.On("RetrieveRelevant", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]docstore.Chunk{{Text: "chunk"}}, nil)
	comp.On("Generate", mock.Anything, mock.Anything).Return(completion(failedExtraction, 1, 1), nil)

	runs := newFakeRunStore()
	svc := NewService(NewEngine(testConfig(), comp, search, docs), runs, 1)

	result, err := svc.Extract(context.Background(), "prod-1", "raw text")
	require.NoError(t, err, "a failed workflow is still a delivered result")
	assert.Contains(t, result.Error, "critical features missing")

	listed, _ := runs.ListRuns(context.Background(), 10)
	require.Len(t, listed, 1)
	assert.Equal(t, model.RunStatusFailed, listed[0].Status)
	assert.Contains(t, listed[0].Result.Error, "critical features missing")
}

func TestServiceConcurrentRunsAreIsolated(t *testing.T) {
	runs := newFakeRunStore()
	svc := NewService(happyEngine(), runs, 3)

	const n = 8
	results := make([]*Result, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Extract(context.Background(), fmt.Sprintf("prod-%d", i), "raw text")
			require.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		require.NotNil(t, res)
		assert.Empty(t, res.Error)
		assert.Equal(t, fmt.Sprintf("prod-%d", i), res.ProductID)
		assert.Equal(t, []int{0}, res.MissingHistory, "histories never leak between runs")
	}

	listed, _ := runs.ListRuns(context.Background(), 100)
	assert.Len(t, listed, n)
}

func TestServiceExtractWithoutRunLog(t *testing.T) {
	svc := NewService(happyEngine(), nil, 1)

	result, err := svc.Extract(context.Background(), "prod-1", "raw text")
	require.NoError(t, err)
	assert.Empty(t, result.Error)
}

func TestServiceAcquireCanceled(t *testing.T) {
	svc := NewService(happyEngine(), nil, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Extract(ctx, "prod-1", "raw text")
	assert.Error(t, err)
}
