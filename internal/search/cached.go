package search

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ppiankov/claimcheck/internal/cache"
	"github.com/ppiankov/claimcheck/internal/model"
)

// CachedSearcher serves repeated queries from a cache and collapses concurrent identical queries
type CachedSearcher struct {
	next       Searcher
	cache      cache.Cache
	ttl        time.Duration
	maxResults int
	group      singleflight.Group
	logger     *slog.Logger

	// OnLookup is called with true on a cache hit and false on a miss
	OnLookup func(hit bool)
}

// NewCachedSearcher wraps next with a result cache.
// maxResults is folded into the cache key so different limits do not collide.
func NewCachedSearcher(next Searcher, c cache.Cache, ttl time.Duration, maxResults int, logger *slog.Logger) *CachedSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSearcher{
		next:       next,
		cache:      c,
		ttl:        ttl,
		maxResults: maxResults,
		logger:     logger.With("component", "search_cache"),
	}
}

// Search returns cached results or queries the wrapped searcher.
// Errors are never cached.
func (s *CachedSearcher) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	key := cache.QueryKey(query, s.maxResults)

	if results, found := s.cache.Get(key); found {
		s.observe(true)
		s.logger.Debug("search cache hit", "query", query)
		return results, nil
	}
	s.observe(false)

	// The flight outlives its first caller
	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(key, func() (any, error) {
		results, err := s.next.Search(flightCtx, query)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(key, results, s.ttl); err != nil {
			s.logger.Warn("failed to cache search results", "query", query, "error", err)
		}
		return results, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("search deduplicated", "query", query)
	}

	results := v.([]model.SearchResult)
	out := make([]model.SearchResult, len(results))
	copy(out, results)
	return out, nil
}

func (s *CachedSearcher) observe(hit bool) {
	if s.OnLookup != nil {
		s.OnLookup(hit)
	}
}
