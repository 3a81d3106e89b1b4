// Package search provides the web search collaborator used to gather evidence for claims.
package search

import (
	"context"

	"github.com/ppiankov/claimcheck/internal/model"
)

// Searcher returns candidate evidence for a claim.
// Zero results is not an error.
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
}

// SearcherFunc adapts a function to Searcher
type SearcherFunc func(ctx context.Context, query string) ([]model.SearchResult, error)

// Search calls f
func (f SearcherFunc) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	return f(ctx, query)
}
