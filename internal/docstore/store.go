// Package docstore persists product text and search results as embedded
// chunks and serves semantic retrieval over them.
package docstore

import "context"

// Source types attached to stored chunks. Retrieval can be restricted to a
// single source type, which the workflow uses to generate missing features
// from search results only.
const (
	SourceRaw          = "raw"
	SourceSearchResult = "search_result"
)

// Chunk is one retrieved passage.
type Chunk struct {
	Text string
}

// Store is the document/chunk collaborator consumed by the workflow engine.
type Store interface {
	// StoreRaw chunks and persists a product's raw text, returning the
	// document id.
	StoreRaw(ctx context.Context, productID, text string) (string, error)

	// StoreSearchResult persists one web-search result with its query and
	// source domain, returning the document id.
	StoreSearchResult(ctx context.Context, productID, query, text, sourceDomain string) (string, error)

	// RetrieveRelevant returns up to limit chunks for the product ranked by
	// semantic similarity to the query. sourceType narrows retrieval to one
	// source type when non-empty. An empty result is not an error.
	RetrieveRelevant(ctx context.Context, productID, query string, limit int, sourceType string) ([]Chunk, error)
}

// Embedder turns text into vectors for storage and retrieval.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}
