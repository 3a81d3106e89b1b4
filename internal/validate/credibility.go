package validate

import (
	"strings"

	"github.com/ppiankov/claimcheck/internal/model"
)

// CredibilityFilter decides which search results count as evidence
type CredibilityFilter struct {
	blocked   []string
	trusted   []string
	reputable []string
}

// NewCredibilityFilter creates a filter from the policy domain tables.
// Empty tables fall back to the defaults.
func NewCredibilityFilter(policy model.PolicyConfig) *CredibilityFilter {
	defaults := model.DefaultPolicy()
	if len(policy.BlockedDomains) == 0 {
		policy.BlockedDomains = defaults.BlockedDomains
	}
	if len(policy.TrustedMarkers) == 0 {
		policy.TrustedMarkers = defaults.TrustedMarkers
	}
	if len(policy.ReputableDomains) == 0 {
		policy.ReputableDomains = defaults.ReputableDomains
	}

	return &CredibilityFilter{
		blocked:   lowerAll(policy.BlockedDomains),
		trusted:   lowerAll(policy.TrustedMarkers),
		reputable: lowerAll(policy.ReputableDomains),
	}
}

// IsCredible classifies a URL by substring rules on its lowercased form.
// Blocked domains win over every allow rule.
func (f *CredibilityFilter) IsCredible(rawURL string) bool {
	lower := strings.ToLower(rawURL)

	for _, domain := range f.blocked {
		if strings.Contains(lower, domain) {
			return false
		}
	}

	for _, marker := range f.trusted {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	for _, domain := range f.reputable {
		if strings.Contains(lower, domain) {
			return true
		}
	}

	return false
}

// Filter drops results missing a URL or title, then keeps credible ones in order
func (f *CredibilityFilter) Filter(results []model.SearchResult) []model.SearchResult {
	credible := make([]model.SearchResult, 0, len(results))
	for _, r := range results {
		if !r.HasRequiredFields() {
			continue
		}
		if f.IsCredible(r.URL) {
			credible = append(credible, r)
		}
	}
	return credible
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, strings.ToLower(s))
		}
	}
	return out
}
