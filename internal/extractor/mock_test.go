package extractor

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/boardspec/extractor/internal/docstore"
	"github.com/boardspec/extractor/pkg/llm"
	"github.com/boardspec/extractor/pkg/tavily"
)

// --- Completion Mock ---

type mockCompletion struct {
	mock.Mock
}

func (m *mockCompletion) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.GenerateResponse), args.Error(1)
}

// --- Search Mock ---

type mockSearch struct {
	mock.Mock
}

func (m *mockSearch) Search(ctx context.Context, query string, excludeDomains []string) ([]tavily.Result, error) {
	args := m.Called(ctx, query, excludeDomains)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tavily.Result), args.Error(1)
}

// --- Document Store Mock ---

type mockDocstore struct {
	mock.Mock
}

func (m *mockDocstore) StoreRaw(ctx context.Context, productID, text string) (string, error) {
	args := m.Called(ctx, productID, text)
	return args.String(0), args.Error(1)
}

func (m *mockDocstore) StoreSearchResult(ctx context.Context, productID, query, text, sourceDomain string) (string, error) {
	args := m.Called(ctx, productID, query, text, sourceDomain)
	return args.String(0), args.Error(1)
}

func (m *mockDocstore) RetrieveRelevant(ctx context.Context, productID, query string, limit int, sourceType string) ([]docstore.Chunk, error) {
	args := m.Called(ctx, productID, query, limit, sourceType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]docstore.Chunk), args.Error(1)
}
