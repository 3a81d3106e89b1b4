package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimcheck/internal/model"
)

// Signal is the per-result breakdown behind a confidence score
type Signal struct {
	URL              string  `json:"url"`
	Relevance        float64 `json:"relevance"`
	HasSupport       bool    `json:"hasSupport"`
	HasContradiction bool    `json:"hasContradiction"`
	Score            float64 `json:"score"`
}

// Scorer turns a claim and its credible evidence into a validation outcome
type Scorer struct {
	cfg        model.ScoringConfig
	stopWords  map[string]bool
	support    []string
	contradict []string
}

// NewScorer creates a scorer from scoring weights and policy vocabularies
func NewScorer(cfg model.ScoringConfig, policy model.PolicyConfig) *Scorer {
	defaults := model.DefaultPolicy()
	if policy.StopWords == nil {
		policy.StopWords = defaults.StopWords
	}
	if len(policy.SupportPhrases) == 0 {
		policy.SupportPhrases = defaults.SupportPhrases
	}
	if len(policy.ContradictPhrases) == 0 {
		policy.ContradictPhrases = defaults.ContradictPhrases
	}
	if cfg.NoSourcesCorrection == "" {
		cfg.NoSourcesCorrection = model.DefaultScoring().NoSourcesCorrection
	}
	if cfg.FallbackCorrection == "" {
		cfg.FallbackCorrection = model.DefaultScoring().FallbackCorrection
	}

	stop := make(map[string]bool, len(policy.StopWords))
	for _, w := range policy.StopWords {
		stop[strings.ToLower(w)] = true
	}

	return &Scorer{
		cfg:        cfg,
		stopWords:  stop,
		support:    lowerAll(policy.SupportPhrases),
		contradict: lowerAll(policy.ContradictPhrases),
	}
}

// Score scores a claim against results that already passed the credibility filter
func (s *Scorer) Score(claim string, credible []model.SearchResult) model.ValidationOutcome {
	// 1. Nothing to weigh: terminal outcome
	if len(credible) == 0 {
		return model.ValidationOutcome{
			IsValid:             false,
			Sources:             []string{},
			Confidence:          0,
			SuggestedCorrection: s.cfg.NoSourcesCorrection,
		}
	}

	// 2. Per-result signals
	signals := s.Analyze(claim, credible)

	// 3. Aggregate
	var totalScore, totalRelevance float64
	for _, sig := range signals {
		totalScore += sig.Score
		totalRelevance += sig.Relevance
	}
	n := float64(len(signals))
	avgScore := totalScore / n
	avgRelevance := totalRelevance / n

	confidence := clamp(s.cfg.ScoreWeight*avgScore+s.cfg.RelevanceWeight*avgRelevance, s.cfg.MinConfidence, 1)

	// 4. Verdict: strong confidence overrides contradicting language
	contradicted := false
	for _, r := range credible {
		if containsAny(strings.ToLower(r.Body()), s.contradict) {
			contradicted = true
			break
		}
	}
	isValid := (confidence > s.cfg.ValidThreshold && !contradicted) || confidence > s.cfg.StrongThreshold

	sources := make([]string, 0, len(credible))
	for _, r := range credible {
		sources = append(sources, r.URL)
	}

	outcome := model.ValidationOutcome{
		IsValid:    isValid,
		Sources:    sources,
		Confidence: confidence,
	}

	if !isValid {
		outcome.SuggestedCorrection = credible[0].Snippet
		if outcome.SuggestedCorrection == "" {
			outcome.SuggestedCorrection = s.cfg.FallbackCorrection
		}
	}

	return outcome
}

// Analyze computes the relevance and language signals of each result
func (s *Scorer) Analyze(claim string, results []model.SearchResult) []Signal {
	words := s.claimWords(claim)

	signals := make([]Signal, 0, len(results))
	for _, r := range results {
		text := strings.ToLower(r.Title + " " + r.Body())

		relevance := 0.0
		if len(words) > 0 {
			matched := 0
			for _, w := range words {
				if strings.Contains(text, w) {
					matched++
				}
			}
			relevance = float64(matched) / float64(len(words))
		}

		sig := Signal{
			URL:              r.URL,
			Relevance:        relevance,
			HasSupport:       containsAny(text, s.support),
			HasContradiction: containsAny(text, s.contradict),
		}

		score := relevance
		if sig.HasSupport {
			score += s.cfg.SupportBonus
		}
		if sig.HasContradiction {
			score -= s.cfg.ContradictionPenalty
		}
		sig.Score = clamp(score, 0, 1)

		signals = append(signals, sig)
	}

	return signals
}

// ErrorOutcome is the outcome recorded when the search provider fails
func ErrorOutcome(err error) model.ValidationOutcome {
	return model.ValidationOutcome{
		IsValid:             false,
		Sources:             []string{},
		Confidence:          0,
		SuggestedCorrection: fmt.Sprintf("Error during validation: %v", err),
	}
}

// claimWords lowercases and splits on single spaces, dropping stop words and empty tokens
func (s *Scorer) claimWords(claim string) []string {
	var words []string
	for _, w := range strings.Split(strings.ToLower(claim), " ") {
		if w == "" || s.stopWords[w] {
			continue
		}
		words = append(words, w)
	}
	return words
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
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
