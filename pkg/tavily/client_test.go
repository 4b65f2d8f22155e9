package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardspec/extractor/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func searchResults(results ...map[string]any) map[string]any {
	return map[string]any{"results": results}
}

func TestSearchRequestShape(t *testing.T) {
	var gotReq searchRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(searchResults(map[string]any{
			"title":       "Board Specs",
			"url":         "https://example.com/board",
			"content":     "summary text",
			"raw_content": "full page text",
		}))
	}))
	defer srv.Close()

	c := NewClient("tvly-test", WithBaseURL(srv.URL), WithMaxResults(5), WithRetryConfig(fastRetry()))
	results, err := c.Search(context.Background(), "BOARD price", []string{"https://seen.example.com/page"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tvly-test", gotAuth)
	assert.Equal(t, "BOARD price", gotReq.Query)
	assert.Equal(t, "advanced", gotReq.SearchDepth)
	assert.Equal(t, 5, gotReq.MaxResults)
	assert.True(t, gotReq.IncludeRawContent)
	assert.Equal(t, []string{"https://seen.example.com"}, gotReq.ExcludeDomains)

	require.Len(t, results, 1)
	assert.Equal(t, "BOARD price", results[0].Query)
	assert.Equal(t, "https://example.com", results[0].SourceDomain)
	assert.Equal(t, "Title: Board Specs\n\nSummary: summary text\n\nAdditional Details: full page text", results[0].Content)
}

func TestSearchOmitsRawContentSectionWhenAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(searchResults(map[string]any{
			"title":   "T",
			"url":     "https://example.com/x",
			"content": "s",
		}))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithRetryConfig(fastRetry()))
	results, err := c.Search(context.Background(), "q", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Title: T\n\nSummary: s", results[0].Content)
}

func TestSearchRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(searchResults(map[string]any{
			"title": "T", "url": "https://example.com/x", "content": "s",
		}))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithRetryConfig(fastRetry()))
	results, err := c.Search(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearchFailsAfterExhaustedRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithRetryConfig(fastRetry()))
	_, err := c.Search(context.Background(), "q", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSearchRetriesWithoutExclusionsWhenEmpty(t *testing.T) {
	var requests []searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		requests = append(requests, req)

		if len(req.ExcludeDomains) > 0 {
			_ = json.NewEncoder(w).Encode(searchResults())
			return
		}
		_ = json.NewEncoder(w).Encode(searchResults(
			map[string]any{"title": "New", "url": "https://fresh.example.com/a", "content": "c"},
			map[string]any{"title": "Seen", "url": "https://seen.example.com/page", "content": "c"},
		))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithRetryConfig(fastRetry()))
	results, err := c.Search(context.Background(), "q", []string{"https://seen.example.com/page"})
	require.NoError(t, err)

	// Two calls: the excluded search came back empty, the fallback ran
	// without exclusions and the already-seen URL was filtered locally.
	require.Len(t, requests, 2)
	assert.NotEmpty(t, requests[0].ExcludeDomains)
	assert.Empty(t, requests[1].ExcludeDomains)

	require.Len(t, results, 1)
	assert.Equal(t, "https://fresh.example.com", results[0].SourceDomain)
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(searchResults())
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithRetryConfig(fastRetry()))
	results, err := c.Search(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNormalizeDomains(t *testing.T) {
	got := normalizeDomains([]string{
		"https://example.com/a",
		"https://example.com/b",
		"http://other.org/x?y=1",
		"not a url",
	})
	assert.Equal(t, []string{"https://example.com", "http://other.org", "not a url"}, got)
}
