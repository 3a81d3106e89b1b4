package extract

import (
	"strings"
	"testing"

	"github.com/ppiankov/claimcheck/internal/model"
)

const researchDoc = `# Test Research Document

Climate change is causing global temperatures to rise.

The Earth is flat according to some people.

AI will revolutionize how we work in the future.`

func TestClaimExtractor_ResearchDocument(t *testing.T) {
	extractor := NewClaimExtractor(model.DefaultPolicy())

	claims := extractor.Extract(researchDoc)

	expected := []string{
		"Climate change is causing global temperatures to rise",
		"The Earth is flat according to some people",
		"AI will revolutionize how we work in the future",
	}
	if len(claims) != len(expected) {
		t.Fatalf("Expected %d claims, got %d: %v", len(expected), len(claims), claims)
	}
	for i, want := range expected {
		if claims[i] != want {
			t.Errorf("Expected claim %d to be %q, got %q", i, want, claims[i])
		}
	}
}

func TestClaimExtractor_IsClaim(t *testing.T) {
	extractor := NewClaimExtractor(model.DefaultPolicy())

	tests := []struct {
		name     string
		sentence string
		expected bool
	}{
		{"copula", "Water is composed of hydrogen and oxygen", true},
		{"modal", "Engineers must follow the safety code", true},
		{"causal verb", "Smoking causes lung cancer in many patients", true},
		{"too short", "It is hot", false},
		{"question mark", "Is water wet or is it not?", false},
		{"only punctuation", "...,,,;;;---!!!", false},
		{"uncertainty maybe", "Maybe the market is going to crash", false},
		{"uncertainty case-insensitive", "I Think this is the best approach", false},
		{"opinion", "In my opinion the policy is harmful", false},
		{"no indicator", "Temperatures rising across the whole planet", false},
		{"indicator needs spaces", "Thisis a sentence without spacing", false},
		{"substring of marker", "The mayor was elected last spring", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractor.IsClaim(tt.sentence); got != tt.expected {
				t.Errorf("IsClaim(%q) = %v, expected %v", tt.sentence, got, tt.expected)
			}
		})
	}
}

func TestClaimExtractor_NeverReturnsQuestionsOrShortSentences(t *testing.T) {
	extractor := NewClaimExtractor(model.DefaultPolicy())

	text := "Is this a claim? The sky is blue today. Short is ok.\n" +
		"Why is the sea salty?! Salt is carried by rivers into the sea.\n" +
		"It is. Yes it is! The moon is not made of cheese"

	for _, claim := range extractor.Extract(text) {
		if strings.Contains(claim, "?") {
			t.Errorf("Claim contains '?': %q", claim)
		}
		if len([]rune(claim)) < 10 {
			t.Errorf("Claim shorter than 10 characters: %q", claim)
		}
	}
}

func TestClaimExtractor_KeepsDuplicatesInOrder(t *testing.T) {
	extractor := NewClaimExtractor(model.DefaultPolicy())

	text := "The reactor is stable. The reactor is stable.\nThe core was inspected yesterday."
	claims := extractor.Extract(text)

	if len(claims) != 3 {
		t.Fatalf("Expected 3 claims, got %d: %v", len(claims), claims)
	}
	if claims[0] != claims[1] {
		t.Errorf("Expected duplicate claims to be kept, got %q and %q", claims[0], claims[1])
	}
	if claims[2] != "The core was inspected yesterday" {
		t.Errorf("Expected last claim in document order, got %q", claims[2])
	}
}

func TestClaimExtractor_EmptyPolicyFallsBackToDefaults(t *testing.T) {
	extractor := NewClaimExtractor(model.PolicyConfig{})

	if !extractor.IsClaim("The committee has approved the budget") {
		t.Error("Expected default statement indicators to apply")
	}
	if extractor.IsClaim("Perhaps the committee has approved it") {
		t.Error("Expected default uncertainty markers to apply")
	}
}

func TestClaimExtractor_CustomPolicy(t *testing.T) {
	policy := model.DefaultPolicy()
	policy.StatementIndicators = []string{" allegedly "}

	extractor := NewClaimExtractor(policy)

	if extractor.IsClaim("The committee has approved the budget") {
		t.Error("Expected default indicators to be replaced")
	}
	if !extractor.IsClaim("The senator ALLEGEDLY took the money") {
		t.Error("Expected custom indicator to match case-insensitively")
	}
}

func TestSplitParagraphs(t *testing.T) {
	text := "# Heading\n\n   \nshort\nThis paragraph is long enough.\n## Another heading line\n  Indented paragraph survives  "

	paragraphs := SplitParagraphs(text, 10)

	if len(paragraphs) != 2 {
		t.Fatalf("Expected 2 paragraphs, got %d: %v", len(paragraphs), paragraphs)
	}
	if paragraphs[1] != "Indented paragraph survives" {
		t.Errorf("Expected trimmed paragraph, got %q", paragraphs[1])
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name      string
		paragraph string
		expected  []string
	}{
		{"single", "One sentence only", []string{"One sentence only"}},
		{"mixed terminators", "First. Second! Third? Fourth", []string{"First", "Second", "Third", "Fourth"}},
		{"punctuation runs", "Wait... what?! Fine.", []string{"Wait", "what", "Fine"}},
		{"empty fragments", "...", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.paragraph)
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %d sentences, got %d: %v", len(tt.expected), len(got), got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("Expected sentence %d to be %q, got %q", i, tt.expected[i], got[i])
				}
			}
		})
	}
}
