package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewProxyFunc_ConfiguredProxies(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.internal:3128", "http://secure-proxy.internal:3129", "api.tavily.com")

	tests := []struct {
		url      string
		expected string
		desc     string
	}{
		{"http://example.com/page", "http://proxy.internal:3128", "http request"},
		{"https://example.com/page", "http://secure-proxy.internal:3129", "https request"},
		{"https://api.tavily.com/search", "", "no_proxy host bypasses"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, tt.url, nil)
			got, err := proxy(req)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if tt.expected == "" {
				if got != nil {
					t.Errorf("Expected no proxy, got %s", got)
				}
				return
			}
			if got == nil || got.String() != tt.expected {
				t.Errorf("Expected proxy %s, got %v", tt.expected, got)
			}
		})
	}
}

func TestNewProxyFunc_HTTPProxyOnlyCoversHTTPS(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.internal:3128", "", "")

	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	got, err := proxy(req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got == nil || got.Host != "proxy.internal:3128" {
		t.Errorf("Expected http proxy for https request, got %v", got)
	}
}

func TestRobotsChecker_CanFetch(t *testing.T) {
	var robotsHits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			atomic.AddInt32(&robotsHits, 1)
			_, _ = w.Write([]byte("User-agent: claimcheck\nDisallow: /private\nCrawl-delay: 2\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "claimcheck/0.1 (+https://github.com/ppiankov/claimcheck)")
	ctx := context.Background()

	allowed, delay, err := checker.CanFetch(ctx, server.URL+"/public/page")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !allowed {
		t.Error("Expected /public/page to be allowed")
	}
	if delay != 2*time.Second {
		t.Errorf("Expected crawl delay 2s, got %v", delay)
	}

	allowed, _, err = checker.CanFetch(ctx, server.URL+"/private/report")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if allowed {
		t.Error("Expected /private/report to be disallowed")
	}

	if hits := atomic.LoadInt32(&robotsHits); hits != 1 {
		t.Errorf("Expected robots.txt to be fetched once, got %d", hits)
	}
}

func TestRobotsChecker_MissingRobotsAllowsAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "claimcheck/0.1")

	allowed, _, err := checker.CanFetch(context.Background(), server.URL+"/anything")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !allowed {
		t.Error("Expected fetch to be allowed without robots.txt")
	}
}

func TestRobotsChecker_InvalidURL(t *testing.T) {
	checker := NewRobotsChecker(nil, "claimcheck/0.1")

	if _, _, err := checker.CanFetch(context.Background(), "not a url"); err == nil {
		t.Error("Expected error for URL without host")
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	if got := NormalizeUserAgent("claimcheck/0.1 (+https://example.org)"); got != "claimcheck" {
		t.Errorf("Expected 'claimcheck', got %q", got)
	}
	if got := NormalizeUserAgent(""); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
}
