package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts dispatched requests by action and result code
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimcheck_requests_total",
		Help: "Dispatched requests by action and result code",
	}, []string{"action", "code"})

	// requestDuration tracks end-to-end request latency
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "claimcheck_request_duration_seconds",
		Help:    "Request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	}, []string{"action"})

	// claimsExtracted tracks the number of claims found per processed document
	claimsExtracted = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "claimcheck_claims_extracted",
		Help:    "Claims extracted per processed document",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})

	// verdictsTotal counts validation verdicts
	verdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimcheck_verdicts_total",
		Help: "Validation verdicts by outcome",
	}, []string{"verdict"})

	// searchCacheLookups counts search cache hits and misses
	searchCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimcheck_search_cache_lookups_total",
		Help: "Search cache lookups by result",
	}, []string{"result"})

	// sessionSaveFailures counts failed session flushes
	sessionSaveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claimcheck_session_save_failures_total",
		Help: "Session saves that failed and were swallowed",
	})
)

func observeCacheLookup(hit bool) {
	if hit {
		searchCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	searchCacheLookups.WithLabelValues("miss").Inc()
}

func verdictLabel(isValid bool, sources int) string {
	switch {
	case sources == 0:
		return "unverified"
	case isValid:
		return "valid"
	default:
		return "invalid"
	}
}
