package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/claimcheck/internal/model"
)

// ClaimExtractor picks checkable claims out of prose
type ClaimExtractor struct {
	minParagraph int
	minSentence  int
	uncertainty  []string
	indicators   []string
}

// NewClaimExtractor creates a claim extractor from policy tables.
// Markers are lowercased once; indicators keep their surrounding spaces.
func NewClaimExtractor(policy model.PolicyConfig) *ClaimExtractor {
	defaults := model.DefaultPolicy()
	if policy.MinParagraphLength <= 0 {
		policy.MinParagraphLength = defaults.MinParagraphLength
	}
	if policy.MinSentenceLength <= 0 {
		policy.MinSentenceLength = defaults.MinSentenceLength
	}
	if len(policy.UncertaintyMarkers) == 0 {
		policy.UncertaintyMarkers = defaults.UncertaintyMarkers
	}
	if len(policy.StatementIndicators) == 0 {
		policy.StatementIndicators = defaults.StatementIndicators
	}

	return &ClaimExtractor{
		minParagraph: policy.MinParagraphLength,
		minSentence:  policy.MinSentenceLength,
		uncertainty:  lowerAll(policy.UncertaintyMarkers),
		indicators:   lowerAll(policy.StatementIndicators),
	}
}

// Extract returns the claims of a document in document order.
// No deduplication: the position of a claim is its identity.
func (e *ClaimExtractor) Extract(text string) []string {
	claims := []string{}
	for _, paragraph := range SplitParagraphs(text, e.minParagraph) {
		for _, sentence := range SplitSentences(paragraph) {
			if e.IsClaim(sentence) {
				claims = append(claims, sentence)
			}
		}
	}
	return claims
}

// IsClaim reports whether a sentence is a declarative, checkable statement
func (e *ClaimExtractor) IsClaim(sentence string) bool {
	if utf8.RuneCountInString(sentence) < e.minSentence {
		return false
	}
	if strings.Contains(sentence, "?") {
		return false
	}
	if onlyPunctuation(sentence) {
		return false
	}

	lower := strings.ToLower(sentence)
	for _, marker := range e.uncertainty {
		if strings.Contains(lower, marker) {
			return false
		}
	}

	for _, indicator := range e.indicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// SplitParagraphs splits text on newlines and drops headings and short lines
func SplitParagraphs(text string, minLength int) []string {
	var paragraphs []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		// Markdown headings
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		if utf8.RuneCountInString(trimmed) < minLength {
			continue
		}
		paragraphs = append(paragraphs, trimmed)
	}
	return paragraphs
}

// SplitSentences splits a paragraph on runs of '.', '!' and '?'
func SplitSentences(paragraph string) []string {
	fields := strings.FieldsFunc(paragraph, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var sentences []string
	for _, f := range fields {
		s := strings.TrimSpace(f)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// onlyPunctuation reports whether s has no letters or digits
func onlyPunctuation(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
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
