package validate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/claimcheck/internal/model"
)

func init() {
	// Disable retry sleep in all tests for fast execution
	enrichSleepFunc = func(d time.Duration) {}
}

func newTestEnricher(respectRobots bool) *Enricher {
	cfg := model.DefaultConfig()
	cfg.Evidence.RespectRobots = respectRobots
	cfg.Evidence.RequestsPerSecond = 0
	cfg.Evidence.MaxContentBytes = 200
	return NewEnricher(cfg.Evidence, cfg.HTTP, nil)
}

func TestEnricher_FillsMissingContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><script>x()</script><p>Evidence shows warming.</p></body></html>`))
	}))
	defer server.Close()

	enricher := newTestEnricher(false)
	results := []model.SearchResult{
		{URL: server.URL + "/page", Title: "Empty"},
		{URL: server.URL + "/other", Title: "Has snippet", Snippet: "already here"},
	}

	enriched := enricher.Enrich(context.Background(), results)

	if enriched[0].Content != "Evidence shows warming." {
		t.Errorf("Expected visible text, got %q", enriched[0].Content)
	}
	if enriched[1].Content != "" {
		t.Errorf("Expected result with snippet to be skipped, got content %q", enriched[1].Content)
	}
	if results[0].Content != "" {
		t.Error("Expected input slice to be left unmodified")
	}
}

func TestEnricher_TruncatesContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strings.Repeat("a", 1000)))
	}))
	defer server.Close()

	enricher := newTestEnricher(false)
	enriched := enricher.Enrich(context.Background(), []model.SearchResult{{URL: server.URL, Title: "Long"}})

	if len(enriched[0].Content) != 200 {
		t.Errorf("Expected content truncated to 200 bytes, got %d", len(enriched[0].Content))
	}
}

func TestEnricher_RespectsRobots(t *testing.T) {
	var pageHits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /\n"))
			return
		}
		atomic.AddInt32(&pageHits, 1)
		_, _ = w.Write([]byte("secret"))
	}))
	defer server.Close()

	enricher := newTestEnricher(true)
	enriched := enricher.Enrich(context.Background(), []model.SearchResult{{URL: server.URL + "/page", Title: "Blocked"}})

	if enriched[0].Content != "" {
		t.Errorf("Expected no content for disallowed page, got %q", enriched[0].Content)
	}
	if atomic.LoadInt32(&pageHits) != 0 {
		t.Errorf("Expected page not to be fetched, got %d hits", pageHits)
	}
}

func TestEnricher_RetriesServerErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer server.Close()

	enricher := newTestEnricher(false)
	enriched := enricher.Enrich(context.Background(), []model.SearchResult{{URL: server.URL, Title: "Flaky"}})

	if enriched[0].Content != "recovered" {
		t.Errorf("Expected content after retries, got %q", enriched[0].Content)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestEnricher_DoesNotRetryNotFound(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	enricher := newTestEnricher(false)
	enriched := enricher.Enrich(context.Background(), []model.SearchResult{{URL: server.URL, Title: "Gone"}})

	if enriched[0].Content != "" {
		t.Errorf("Expected no content, got %q", enriched[0].Content)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("Expected 1 attempt for 404, got %d", got)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		status   int
		err      error
		expected bool
		desc     string
	}{
		{503, errors.New("unexpected status 503"), true, "server error"},
		{429, errors.New("unexpected status 429"), true, "rate limited"},
		{404, errors.New("unexpected status 404"), false, "not found"},
		{0, errors.New("request failed: dial tcp: connection refused"), true, "connection refused"},
		{0, errors.New("request failed: context deadline exceeded (Client.Timeout exceeded)"), true, "timeout"},
		{0, errors.New("disallowed by robots.txt"), false, "robots"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := isRetryable(tt.status, tt.err); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
