package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/claimcheck/internal/cache"
	"github.com/ppiankov/claimcheck/internal/ledger"
	"github.com/ppiankov/claimcheck/internal/llm"
	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/search"
	"github.com/ppiankov/claimcheck/internal/session"
	"github.com/ppiankov/claimcheck/internal/validate"
)

// NewFromConfig wires a processor from configuration
func NewFromConfig(cfg *model.Config, logger *slog.Logger) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// 1. Search provider, optionally cached
	searcher, err := newSearcher(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create searcher: %w", err)
	}

	// 2. Ledger and the embedder that feeds it
	embedder, err := llm.NewEmbedder(llm.ConfigFromModel(cfg))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	led, err := ledger.Open(cfg.Ledger, logger)
	if err != nil {
		return nil, fmt.Errorf("open claim ledger: %w", err)
	}

	// 3. Session persistence
	backend, err := session.OpenBackend(cfg, logger)
	if err != nil {
		_ = led.Close()
		return nil, fmt.Errorf("open session backend: %w", err)
	}

	// 4. Optional evidence enrichment
	var enricher *validate.Enricher
	if cfg.Evidence.FetchMissingContent {
		enricher = validate.NewEnricher(cfg.Evidence, cfg.HTTP, logger)
	}

	logger.Debug("processor configured",
		"documents", cfg.DocumentsPath(),
		"session", cfg.Session.Backend,
		"ledger", cfg.Ledger.Provider,
		"embedding", embedder.Name(),
		"enrich", enricher != nil)

	return New(Options{
		Documents: NewFSDocuments(cfg.DocumentsPath()),
		Searcher:  searcher,
		Ledger:    led,
		Embedder:  embedder,
		Backend:   backend,
		Enricher:  enricher,
		Policy:    cfg.Policy,
		Scoring:   cfg.Scoring,
		Logger:    logger,
	}), nil
}

// newSearcher builds the Tavily client behind a layered cache.
// A missing API key is not fatal: validation then records an error outcome per claim.
func newSearcher(cfg *model.Config, logger *slog.Logger) (search.Searcher, error) {
	if p := strings.ToLower(cfg.Search.Provider); p != "" && p != "tavily" {
		return nil, fmt.Errorf("unknown search provider: %s (supported: tavily)", cfg.Search.Provider)
	}

	tavily, err := search.NewTavilyClient(cfg.Search, cfg.HTTP)
	if errors.Is(err, search.ErrMissingAPIKey) {
		logger.Warn("search disabled", "error", err)
		return search.SearcherFunc(func(context.Context, string) ([]model.SearchResult, error) {
			return nil, err
		}), nil
	}
	if err != nil {
		return nil, err
	}

	if !cfg.Search.Cache.Enabled {
		return tavily, nil
	}

	c := cache.NewLayeredCache(cfg.Search.Cache.MemoryTTL, cfg.CacheDir(), cfg.Search.Cache.DiskTTL)
	cached := search.NewCachedSearcher(tavily, c, 0, tavily.MaxResults(), logger)
	cached.OnLookup = observeCacheLookup
	return cached, nil
}
