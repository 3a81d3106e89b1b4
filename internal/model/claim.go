package model

import (
	"fmt"
	"strings"
)

// SearchResult is a single hit returned by the search provider for a claim query.
// Results are transient: they are scored and discarded, never persisted.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Body returns the result content, falling back to the snippet
func (r SearchResult) Body() string {
	if r.Content != "" {
		return r.Content
	}
	return r.Snippet
}

// HasRequiredFields reports whether the result carries both a URL and a title
func (r SearchResult) HasRequiredFields() bool {
	return strings.TrimSpace(r.URL) != "" && strings.TrimSpace(r.Title) != ""
}

// ClaimRecordID builds the ledger key for the claim at index within filePath
func ClaimRecordID(filePath string, index int) string {
	return fmt.Sprintf("%s-claim-%d", filePath, index)
}
