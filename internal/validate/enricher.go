package validate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/claimcheck/internal/extract"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/util"
	"github.com/ppiankov/claimcheck/internal/worker"
)

const enrichMaxRetries = 3

// enrichSleepFunc is the sleep function used between retries (injectable for tests)
var enrichSleepFunc = time.Sleep

// Enricher fills in page text for credible results that arrived without content or snippet
type Enricher struct {
	httpClient *http.Client
	maxWorkers int
	maxBytes   int
	userAgent  string
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	logger     *slog.Logger
}

// NewEnricher creates an evidence enricher from configuration
func NewEnricher(cfg model.EvidenceConfig, httpCfg model.HTTPConfig, logger *slog.Logger) *Enricher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := util.NewHTTPClient(cfg.Timeout, httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy)

	e := &Enricher{
		httpClient: client,
		maxWorkers: cfg.Workers,
		maxBytes:   cfg.MaxContentBytes,
		userAgent:  httpCfg.UserAgent,
		limiter:    worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		logger:     logger.With("component", "enricher"),
	}
	if cfg.RespectRobots {
		e.robots = util.NewRobotsChecker(client, httpCfg.UserAgent)
	}
	return e
}

// Enrich fetches pages for results with an empty body, concurrently.
// Failures leave the result untouched; enrichment never fails validation.
func (e *Enricher) Enrich(ctx context.Context, results []model.SearchResult) []model.SearchResult {
	enriched := make([]model.SearchResult, len(results))
	copy(enriched, results)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, e.maxWorkers)

	for i := range enriched {
		if enriched[i].Body() != "" {
			continue
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			text, err := e.fetchWithRetry(ctx, enriched[idx].URL)
			if err != nil {
				e.logger.Debug("evidence fetch failed", "url", enriched[idx].URL, "error", err)
				return
			}
			enriched[idx].Content = text
		}(i)
	}

	wg.Wait()
	return enriched
}

// fetchWithRetry retries transient failures with exponential backoff
func (e *Enricher) fetchWithRetry(ctx context.Context, rawURL string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < enrichMaxRetries; attempt++ {
		text, status, err := e.fetch(ctx, rawURL)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !isRetryable(status, err) {
			return "", err
		}
		if attempt < enrichMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			enrichSleepFunc(backoff)
		}
	}
	return "", lastErr
}

// fetch downloads one page and returns its visible text
func (e *Enricher) fetch(ctx context.Context, rawURL string) (string, int, error) {
	var crawlDelay time.Duration
	if e.robots != nil {
		allowed, delay, err := e.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return "", 0, fmt.Errorf("check robots: %w", err)
		}
		if !allowed {
			return "", 0, fmt.Errorf("disallowed by robots.txt: %s", rawURL)
		}
		crawlDelay = delay
	}

	if err := e.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
		return "", 0, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	// Read a bounded prefix; HTML markup is larger than its text
	limit := int64(e.maxBytes) * 4
	if limit <= 0 {
		limit = 1 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read body: %w", err)
	}

	text := string(body)
	if strings.Contains(resp.Header.Get("Content-Type"), "html") {
		text, err = extract.VisibleText(text)
		if err != nil {
			return "", resp.StatusCode, fmt.Errorf("parse html: %w", err)
		}
	}

	return extract.Truncate(strings.TrimSpace(text), e.maxBytes), resp.StatusCode, nil
}

// isRetryable returns true for 5xx, 429 and transient network errors
func isRetryable(status int, err error) bool {
	if status >= 500 && status < 600 {
		return true
	}
	if status == http.StatusTooManyRequests {
		return true
	}
	if status == 0 && err != nil {
		s := strings.ToLower(err.Error())
		return strings.Contains(s, "timeout") ||
			strings.Contains(s, "connection refused") ||
			strings.Contains(s, "connection reset")
	}
	return false
}
