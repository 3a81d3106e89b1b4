package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/util"
	"github.com/ppiankov/claimcheck/internal/worker"
)

// ErrMissingAPIKey is returned when the Tavily API key is not configured
var ErrMissingAPIKey = errors.New("tavily API key is required (search.api_key or TAVILY_API_KEY)")

// TavilyClient queries the Tavily search API
type TavilyClient struct {
	baseURL    string
	apiKey     string
	maxResults int
	depth      string
	httpClient *http.Client
	limiter    *worker.Limiter
}

type tavilyRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth,omitempty"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type tavilyResponse struct {
	Query   string         `json:"query"`
	Results []tavilyResult `json:"results"`
}

// NewTavilyClient creates a Tavily client from configuration
func NewTavilyClient(cfg model.SearchConfig, httpCfg model.HTTPConfig) (*TavilyClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 3
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &TavilyClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     cfg.APIKey,
		maxResults: maxResults,
		depth:      cfg.SearchDepth,
		httpClient: util.NewHTTPClient(timeout, httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
		limiter:    worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
	}, nil
}

// MaxResults returns the per-query result limit
func (c *TavilyClient) MaxResults() int {
	return c.maxResults
}

// Search runs one query against POST /search
func (c *TavilyClient) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	endpoint := c.baseURL + "/search"

	if err := c.limiter.Wait(ctx, endpoint); err != nil {
		return nil, fmt.Errorf("tavily: rate limit: %w", err)
	}

	body, err := json.Marshal(tavilyRequest{
		Query:       query,
		MaxResults:  c.maxResults,
		SearchDepth: c.depth,
	})
	if err != nil {
		return nil, fmt.Errorf("tavily: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tavily: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily: execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("tavily: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tavily: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("tavily: unmarshal response: %w", err)
	}

	results := make([]model.SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, model.SearchResult{
			URL:     r.URL,
			Title:   r.Title,
			Content: r.Content,
		})
	}

	return results, nil
}
