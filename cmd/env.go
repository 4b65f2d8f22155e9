package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/boardspec/extractor/internal/docstore"
	"github.com/boardspec/extractor/internal/extractor"
	"github.com/boardspec/extractor/internal/resilience"
	"github.com/boardspec/extractor/internal/store"
	"github.com/boardspec/extractor/pkg/llm"
	"github.com/boardspec/extractor/pkg/tavily"
)

// env bundles the wired collaborators a command needs.
type env struct {
	Service *extractor.Service
	Store   store.Store
}

func (e *env) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open run store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate run store")
	}
	return st, nil
}

// initService wires the completion client, search client, document store,
// and run log into an extraction service. Embeddings always go through
// OpenAI regardless of the completion provider.
func initService(ctx context.Context) (*env, error) {
	openaiClient := llm.NewOpenAIClient(cfg.OpenAI.Key,
		llm.WithOpenAIBaseURL(cfg.OpenAI.BaseURL),
		llm.WithOpenAIModel(cfg.OpenAI.Model),
		llm.WithOpenAIEmbeddingModel(cfg.OpenAI.EmbeddingModel),
	)

	var completion llm.CompletionClient = openaiClient
	if cfg.Extractor.Provider == "anthropic" {
		completion = llm.NewAnthropicClient(cfg.Anthropic.Key,
			llm.WithAnthropicModel(cfg.Anthropic.Model))
	}

	searchClient := tavily.NewClient(cfg.Tavily.Key,
		tavily.WithBaseURL(cfg.Tavily.BaseURL),
		tavily.WithMaxResults(cfg.Tavily.MaxResults),
		tavily.WithRateLimit(cfg.Tavily.RequestsPerSecond),
		tavily.WithRetryConfig(resilience.RetryConfig{
			MaxAttempts: cfg.Tavily.MaxRetries,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		}),
	)

	docs, err := docstore.NewChromemStore(docstore.ChromemConfig{
		Path:         cfg.Docstore.Path,
		Collection:   cfg.Docstore.Collection,
		ChunkWords:   cfg.Docstore.ChunkWords,
		ChunkOverlap: cfg.Docstore.ChunkOverlap,
	}, openaiClient)
	if err != nil {
		return nil, eris.Wrap(err, "open document store")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	engine := extractor.NewEngine(extractor.Config{
		ModelName:                 cfg.Extractor.ModelName,
		MaxMissingFeatureAttempts: cfg.Extractor.MaxMissingFeatureAttempts,
		MaxLowConfidenceAttempts:  cfg.Extractor.MaxLowConfidenceAttempts,
		ConfidenceThreshold:       cfg.Extractor.ConfidenceThreshold,
		MaxNoProgressAttempts:     cfg.Extractor.MaxNoProgressAttempts,
	}, completion, searchClient, docs)

	return &env{
		Service: extractor.NewService(engine, st, cfg.Extractor.MaxConcurrentRuns),
		Store:   st,
	}, nil
}
