package extractor

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/boardspec/extractor/internal/docstore"
	"github.com/boardspec/extractor/internal/feature"
	"github.com/boardspec/extractor/internal/model"
	"github.com/boardspec/extractor/pkg/llm"
)

// storeAndChunkData persists the raw product text so later retrieval has
// something to pull from. It never consumes completion tokens.
func (e *Engine) storeAndChunkData(ctx context.Context, s *State) {
	start := time.Now()

	if _, err := e.docs.StoreRaw(ctx, s.ProductID, s.RawText); err != nil {
		s.setError("failed to store and chunk data: " + err.Error())
		return
	}
	s.addUsage(string(nodeStoreAndChunk), 0, 0, start)
}

// extractFeatures runs the first full-schema pass over the stored raw text.
// Missing critical attributes fail the run, but the partial tree and its
// classification are kept so the result still reflects what was found.
func (e *Engine) extractFeatures(ctx context.Context, s *State) {
	start := time.Now()

	chunks, err := e.docs.RetrieveRelevant(ctx, s.ProductID, discoveryQuery, chunkRetrievalLimit, "")
	if err != nil {
		s.setError("failed to extract features: " + err.Error())
		return
	}

	system, user := buildExtractionPrompt(joinChunks(chunks))
	resp, err := e.generate(ctx, system, user)
	if err != nil {
		s.setError("failed to extract features: " + err.Error())
		return
	}

	tree, err := model.ParseTree(resp.Text)
	if err != nil {
		s.setError("failed to extract features: " + err.Error())
		return
	}

	s.addUsage(string(nodeExtract), resp.InputTokens, resp.OutputTokens, start)
	s.ExtractedFeatures = tree
	s.reclassify(e.cfg.ConfidenceThreshold)
	s.appendCounts()

	if missing := missingCritical(s.MissingFeatures); len(missing) > 0 {
		s.setError("critical features missing: " + strings.Join(missing, ", "))
	}
}

// missingCritical returns the critical attributes present in the missing
// list, in schema order.
func missingCritical(missingPaths []string) []string {
	missingSet := make(map[string]struct{}, len(missingPaths))
	for _, p := range missingPaths {
		missingSet[p] = struct{}{}
	}
	var out []string
	for _, attr := range model.CriticalAttributes {
		if _, ok := missingSet[attr]; ok {
			out = append(out, attr)
		}
	}
	return out
}

// searchMissingFeatures queries the web for the currently missing attributes
// and stores every result for retrieval by the generation step. With nothing
// missing it burns one attempt and does nothing else; that keeps a
// generate round that filled everything from looping forever.
func (e *Engine) searchMissingFeatures(ctx context.Context, s *State) {
	start := time.Now()

	if len(s.MissingFeatures) == 0 {
		s.addUsage(string(nodeSearchMissing), 0, 0, start)
		s.MissingAttempts++
		return
	}

	if err := e.searchAndStore(ctx, s, s.MissingFeatures); err != nil {
		s.setError("failed to search for missing features: " + err.Error())
		return
	}
	s.addUsage(string(nodeSearchMissing), 0, 0, start)
}

// generateMissingFeatures asks the model to fill the missing attributes from
// search-result context and merges the answer into the tree.
func (e *Engine) generateMissingFeatures(ctx context.Context, s *State) {
	start := time.Now()

	if len(s.MissingFeatures) == 0 {
		s.addUsage(string(nodeGenerateMissing), 0, 0, start)
		s.appendCounts()
		return
	}

	if err := e.completeAndMerge(ctx, s, s.MissingFeatures, nodeGenerateMissing, start); err != nil {
		s.setError("failed to generate missing features: " + err.Error())
		return
	}
	s.MissingAttempts++
	s.appendCounts()
}

// searchLowConfidenceFeatures mirrors searchMissingFeatures for attributes
// that were found but with confidence below the threshold.
func (e *Engine) searchLowConfidenceFeatures(ctx context.Context, s *State) {
	start := time.Now()

	if len(s.LowConfidenceFeatures) == 0 {
		s.addUsage(string(nodeSearchLowConfidence), 0, 0, start)
		s.LowConfidenceAttempts++
		return
	}

	if err := e.searchAndStore(ctx, s, s.LowConfidenceFeatures); err != nil {
		s.setError("failed to search for low confidence features: " + err.Error())
		return
	}
	s.addUsage(string(nodeSearchLowConfidence), 0, 0, start)
}

// refineLowConfidenceFeatures asks the model to improve the low-confidence
// attributes. Unlike generation it retrieves across all stored chunks, raw
// text included, since the original datasheet often settles a shaky value.
func (e *Engine) refineLowConfidenceFeatures(ctx context.Context, s *State) {
	start := time.Now()

	if len(s.LowConfidenceFeatures) == 0 {
		s.addUsage(string(nodeRefineLowConfidence), 0, 0, start)
		s.appendCounts()
		return
	}

	if err := e.completeAndMerge(ctx, s, s.LowConfidenceFeatures, nodeRefineLowConfidence, start); err != nil {
		s.setError("failed to refine low confidence features: " + err.Error())
		return
	}
	s.LowConfidenceAttempts++
	s.appendCounts()
}

// searchAndStore runs one web search for the given target paths, stores each
// result, and extends the domain exclusion list so the next round reaches
// new sources.
func (e *Engine) searchAndStore(ctx context.Context, s *State, targetPaths []string) error {
	query := feature.BuildSearchQuery(s.ExtractedFeatures, targetPaths)
	zap.L().Debug("searching for product features",
		zap.String("product_id", s.ProductID),
		zap.String("query", query),
		zap.Int("exclude_domains", len(s.ExcludeDomains)))

	results, err := e.search.Search(ctx, query, s.ExcludeDomains)
	if err != nil {
		return err
	}
	for _, r := range results {
		if _, err := e.docs.StoreSearchResult(ctx, s.ProductID, r.Query, r.Content, r.SourceDomain); err != nil {
			return err
		}
		s.ExcludeDomains = append(s.ExcludeDomains, r.SourceDomain)
	}
	return nil
}

// completeAndMerge retrieves context for the target paths, runs the
// generation or refinement completion, merges the parsed tree into the run
// state, and reclassifies. Generation restricts retrieval to search results;
// refinement searches everything.
func (e *Engine) completeAndMerge(ctx context.Context, s *State, targetPaths []string, node nodeName, start time.Time) error {
	sourceType := ""
	if node == nodeGenerateMissing {
		sourceType = docstore.SourceSearchResult
	}

	query := strings.Join(targetPaths, " ")
	chunks, err := e.docs.RetrieveRelevant(ctx, s.ProductID, query, chunkRetrievalLimit, sourceType)
	if err != nil {
		return err
	}

	var system, user string
	if node == nodeGenerateMissing {
		system, user, err = buildGenerationPrompt(joinChunks(chunks), s.ExtractedFeatures, targetPaths)
	} else {
		system, user, err = buildRefinementPrompt(joinChunks(chunks), s.ExtractedFeatures, targetPaths)
	}
	if err != nil {
		return err
	}

	resp, err := e.generate(ctx, system, user)
	if err != nil {
		return err
	}

	tree, err := model.ParseTree(resp.Text)
	if err != nil {
		return err
	}

	s.addUsage(string(node), resp.InputTokens, resp.OutputTokens, start)
	s.ExtractedFeatures = feature.Merge(s.ExtractedFeatures, tree)
	s.reclassify(e.cfg.ConfidenceThreshold)
	return nil
}

// generate runs one completion with the engine's fixed sampling settings.
func (e *Engine) generate(ctx context.Context, system, user string) (*llm.GenerateResponse, error) {
	return e.llm.Generate(ctx, llm.GenerateRequest{
		Model:       e.cfg.ModelName,
		System:      system,
		User:        user,
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
	})
}
