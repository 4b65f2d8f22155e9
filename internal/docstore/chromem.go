package docstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ChromemConfig configures the embedded vector store.
type ChromemConfig struct {
	// Path is the directory for persistent storage. Empty means in-memory,
	// which tests and one-shot CLI runs use.
	Path string

	// Collection is the collection holding all product chunks.
	// Default: "product_chunks".
	Collection string

	// ChunkWords and ChunkOverlap control raw-text chunking.
	ChunkWords   int
	ChunkOverlap int
}

func (c *ChromemConfig) applyDefaults() {
	if c.Collection == "" {
		c.Collection = "product_chunks"
	}
	if c.ChunkWords <= 0 {
		c.ChunkWords = defaultChunkWords
	}
	if c.ChunkOverlap <= 0 {
		c.ChunkOverlap = defaultChunkOverlap
	}
}

// ChromemStore implements Store on chromem-go, an embeddable pure-Go vector
// database. Chunks carry product id and source type metadata so retrieval
// can be scoped without separate collections per product.
type ChromemStore struct {
	db       *chromem.DB
	embedder Embedder
	cfg      ChromemConfig

	// counts tracks stored chunks per metadata scope so retrieval can clamp
	// nResults; chromem rejects queries asking for more results than the
	// filtered document count.
	mu     sync.Mutex
	counts map[string]int
}

// NewChromemStore creates a ChromemStore, persistent when cfg.Path is set.
func NewChromemStore(cfg ChromemConfig, embedder Embedder) (*ChromemStore, error) {
	if embedder == nil {
		return nil, eris.New("docstore: embedder is required")
	}
	cfg.applyDefaults()

	var db *chromem.DB
	if cfg.Path != "" {
		var err error
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, eris.Wrapf(err, "docstore: open persistent db at %s", cfg.Path)
		}
	} else {
		db = chromem.NewDB()
	}

	s := &ChromemStore{
		db:       db,
		embedder: embedder,
		cfg:      cfg,
		counts:   map[string]int{},
	}

	zap.L().Debug("docstore initialized",
		zap.String("path", cfg.Path),
		zap.String("collection", cfg.Collection),
		zap.Int("chunk_words", cfg.ChunkWords),
	)
	return s, nil
}

func (s *ChromemStore) collection() (*chromem.Collection, error) {
	col, err := s.db.GetOrCreateCollection(s.cfg.Collection, nil, s.embedQuery)
	if err != nil {
		return nil, eris.Wrapf(err, "docstore: collection %s", s.cfg.Collection)
	}
	return col, nil
}

func (s *ChromemStore) embedQuery(ctx context.Context, text string) ([]float32, error) {
	return s.embedder.EmbedQuery(ctx, text)
}

// StoreRaw chunks the product's raw text and persists every chunk under one
// document id.
func (s *ChromemStore) StoreRaw(ctx context.Context, productID, text string) (string, error) {
	chunks := SplitChunks(text, s.cfg.ChunkWords, s.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		return "", eris.New("docstore: raw text is empty")
	}

	docID := uuid.New().String()
	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("%s_%d", docID, i),
			Content: chunk,
			Metadata: map[string]string{
				"product_id":  productID,
				"source_type": SourceRaw,
				"document_id": docID,
			},
		}
	}

	if err := s.add(ctx, docs); err != nil {
		return "", err
	}
	s.bumpCounts(productID, SourceRaw, len(docs))
	return docID, nil
}

// StoreSearchResult persists one search result as a single chunked document
// tagged with its query and source domain.
func (s *ChromemStore) StoreSearchResult(ctx context.Context, productID, query, text, sourceDomain string) (string, error) {
	chunks := SplitChunks(text, s.cfg.ChunkWords, s.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		return "", eris.New("docstore: search result text is empty")
	}

	docID := uuid.New().String()
	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("%s_%d", docID, i),
			Content: chunk,
			Metadata: map[string]string{
				"product_id":    productID,
				"source_type":   SourceSearchResult,
				"document_id":   docID,
				"search_query":  query,
				"source_domain": sourceDomain,
			},
		}
	}

	if err := s.add(ctx, docs); err != nil {
		return "", err
	}
	s.bumpCounts(productID, SourceSearchResult, len(docs))
	return docID, nil
}

func (s *ChromemStore) add(ctx context.Context, docs []chromem.Document) error {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}

	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return eris.Wrap(err, "docstore: embed documents")
	}
	if len(embeddings) != len(docs) {
		return eris.Errorf("docstore: expected %d embeddings, got %d", len(docs), len(embeddings))
	}
	for i := range docs {
		docs[i].Embedding = embeddings[i]
	}

	col, err := s.collection()
	if err != nil {
		return err
	}
	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return eris.Wrap(err, "docstore: add documents")
	}
	return nil
}

// RetrieveRelevant returns the top chunks for the product by similarity.
func (s *ChromemStore) RetrieveRelevant(ctx context.Context, productID, query string, limit int, sourceType string) ([]Chunk, error) {
	n := limit
	if available := s.countFor(productID, sourceType); available < n {
		n = available
	}
	if n <= 0 {
		return nil, nil
	}

	col, err := s.collection()
	if err != nil {
		return nil, err
	}

	where := map[string]string{"product_id": productID}
	if sourceType != "" {
		where["source_type"] = sourceType
	}

	results, err := col.Query(ctx, query, n, where, nil)
	if err != nil {
		return nil, eris.Wrap(err, "docstore: query")
	}

	chunks := make([]Chunk, len(results))
	for i, r := range results {
		chunks[i] = Chunk{Text: r.Content}
	}
	return chunks, nil
}

func (s *ChromemStore) bumpCounts(productID, sourceType string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[countKey(productID, "")] += n
	s.counts[countKey(productID, sourceType)] += n
}

func (s *ChromemStore) countFor(productID, sourceType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[countKey(productID, sourceType)]
}

func countKey(productID, sourceType string) string {
	return productID + "|" + sourceType
}
