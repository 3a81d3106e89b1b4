package rewrite

import (
	"regexp"
	"strings"

	"github.com/ppiankov/claimcheck/internal/model"
)

// Apply rewrites content using the stored validation entries, in index order.
//
// Every occurrence of an entry's claim text (plus one optional trailing ., ! or ?)
// is replaced:
//   - invalid with a correction and a source: "<correction> [<source>]."
//   - valid with a source: "<claim> [<source>]."
//
// Anything else is left untouched, as are occurrences already followed by the
// same citation, so applying the same entries twice does not stack citations.
func Apply(content string, entries []*model.ValidatedClaim) string {
	for _, entry := range entries {
		if entry == nil || entry.Claim == "" {
			continue
		}

		replacement, ok := replacementFor(entry)
		if !ok {
			continue
		}

		content = replaceClaim(content, entry.Claim, replacement, citation(entry.FirstSource()))
	}
	return content
}

// Count returns the number of entries Apply would act on
func Count(entries []*model.ValidatedClaim) int {
	n := 0
	for _, entry := range entries {
		if entry == nil || entry.Claim == "" {
			continue
		}
		if _, ok := replacementFor(entry); ok {
			n++
		}
	}
	return n
}

func replacementFor(entry *model.ValidatedClaim) (string, bool) {
	source := entry.FirstSource()
	if source == "" {
		return "", false
	}

	switch {
	case !entry.IsValid && entry.SuggestedCorrection != "":
		return entry.SuggestedCorrection + citation(source) + ".", true
	case entry.IsValid:
		return entry.Claim + citation(source) + ".", true
	default:
		return "", false
	}
}

func citation(source string) string {
	return " [" + source + "]"
}

// replaceClaim substitutes every literal occurrence of claim that is not already cited
func replaceClaim(content, claim, replacement, cited string) string {
	pattern := regexp.MustCompile(regexp.QuoteMeta(claim) + `[.!?]?`)

	matches := pattern.FindAllStringIndex(content, -1)
	if len(matches) == 0 {
		return content
	}

	var b strings.Builder
	b.Grow(len(content))

	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if strings.HasPrefix(content[start+len(claim):], cited) {
			continue
		}
		b.WriteString(content[last:start])
		b.WriteString(replacement)
		last = end
	}
	b.WriteString(content[last:])

	return b.String()
}
