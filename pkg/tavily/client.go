// Package tavily provides the web-search client the extraction workflow uses
// to hunt down attributes the source document does not contain.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/boardspec/extractor/internal/resilience"
)

const (
	defaultBaseURL     = "https://api.tavily.com"
	defaultMaxResults  = 10
	defaultSearchDepth = "advanced"
)

// Client performs web searches with domain exclusion. An empty result list
// is a valid outcome, not an error.
type Client interface {
	Search(ctx context.Context, query string, excludeDomains []string) ([]Result, error)
}

// Result is one ranked search hit, flattened to the text and origin the
// workflow persists.
type Result struct {
	Query        string
	Content      string
	SourceDomain string
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithMaxResults overrides the default result count per query.
func WithMaxResults(n int) Option {
	return func(c *httpClient) {
		c.maxResults = n
	}
}

// WithRetryConfig overrides the backoff applied to failed search calls.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithRateLimit paces outgoing searches at n requests per second.
func WithRateLimit(n float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(n), 1)
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey     string
	baseURL    string
	maxResults int
	retry      resilience.RetryConfig
	limiter    *rate.Limiter
	http       *http.Client
}

// NewClient creates a Tavily search client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		maxResults: defaultMaxResults,
		retry:      resilience.DefaultRetryConfig(),
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchRequest struct {
	Query             string   `json:"query"`
	SearchDepth       string   `json:"search_depth"`
	MaxResults        int      `json:"max_results"`
	IncludeRawContent bool     `json:"include_raw_content"`
	ExcludeDomains    []string `json:"exclude_domains,omitempty"`
}

type searchResponse struct {
	Results []rawResult `json:"results"`
}

type rawResult struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Content    string `json:"content"`
	RawContent string `json:"raw_content"`
}

// Search runs the query excluding the given domains. When the excluded
// search comes back empty, it is retried once without exclusions and the
// excluded URLs are filtered out of the response instead, so a fully
// consulted web still yields whatever is left.
func (c *httpClient) Search(ctx context.Context, query string, excludeDomains []string) ([]Result, error) {
	normalized := normalizeDomains(excludeDomains)

	results, err := c.perform(ctx, query, normalized)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 && len(normalized) > 0 {
		zap.L().Warn("no search results with exclusions, retrying without",
			zap.String("query", query),
			zap.Int("excluded", len(normalized)),
		)
		results, err = c.perform(ctx, query, nil)
		if err != nil {
			return nil, err
		}
	}

	excluded := make(map[string]struct{}, len(excludeDomains))
	for _, d := range excludeDomains {
		excluded[d] = struct{}{}
	}

	out := make([]Result, 0, len(results))
	for _, r := range results {
		if _, ok := excluded[r.URL]; ok {
			continue
		}
		out = append(out, Result{
			Query:        query,
			Content:      combineContent(r),
			SourceDomain: normalizeURL(r.URL),
		})
	}
	return out, nil
}

// perform issues one search call with exponential backoff at this boundary.
func (c *httpClient) perform(ctx context.Context, query string, excludeDomains []string) ([]rawResult, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]rawResult, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "tavily: rate limit wait")
			}
		}

		body, err := json.Marshal(searchRequest{
			Query:             query,
			SearchDepth:       defaultSearchDepth,
			MaxResults:        c.maxResults,
			IncludeRawContent: true,
			ExcludeDomains:    excludeDomains,
		})
		if err != nil {
			return nil, eris.Wrap(err, "tavily: marshal request")
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
		if err != nil {
			return nil, eris.Wrap(err, "tavily: create request")
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return nil, eris.Wrap(err, "tavily: send request")
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "tavily: read response")
		}
		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("tavily: unexpected status %d: %s", resp.StatusCode, string(respBody))
		}

		var parsed searchResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, eris.Wrap(err, "tavily: unmarshal response")
		}
		return parsed.Results, nil
	})
}

// combineContent folds a hit's title, summary, and raw page text into the
// single snippet persisted to the document store.
func combineContent(r rawResult) string {
	combined := "Title: " + r.Title + "\n\nSummary: " + r.Content
	if r.RawContent != "" {
		combined += "\n\nAdditional Details: " + r.RawContent
	}
	return combined
}

// normalizeURL reduces a result URL to scheme://host for exclusion purposes.
func normalizeURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return raw
	}
	return parsed.Scheme + "://" + parsed.Host
}

// normalizeDomains dedupes a list of URLs down to their scheme://host form.
func normalizeDomains(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		n := normalizeURL(u)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
