package triage

import (
	"math"
	"sort"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// Normalizer converts raw lexical scores into bounded, ranked confidences.
type Normalizer struct {
	Multiplier float64
	Cap        float64
	Limit      int
}

// DefaultNormalizer uses a 0.2 multiplier, a 0.95 cap and the top three categories.
func DefaultNormalizer() Normalizer {
	return Normalizer{Multiplier: 0.2, Cap: 0.95, Limit: 3}
}

// Confidence maps a raw score to [0, Cap].
func (n Normalizer) Confidence(raw int) float64 {
	if raw <= 0 {
		return 0
	}
	// rounding absorbs float noise such as 4*0.2 = 0.8000000000000002
	return roundConfidence(n.Clamp(float64(raw) * n.Multiplier))
}

// Clamp bounds an arbitrary confidence to [0, Cap]. It does not round, so a
// model-reported value just under a threshold stays under it.
func (n Normalizer) Clamp(confidence float64) float64 {
	if math.IsNaN(confidence) || confidence < 0 {
		return 0
	}
	if confidence > n.Cap {
		confidence = n.Cap
	}
	return confidence
}

// Rank returns at most Limit suggestions sorted by descending confidence,
// ties broken by category name.
func (n Normalizer) Rank(scores LexicalScores) []domain.CategorySuggestion {
	out := make([]domain.CategorySuggestion, 0, len(scores.Scores))
	for category, raw := range scores.Scores {
		if raw <= 0 {
			continue
		}
		out = append(out, domain.CategorySuggestion{
			Category:   category,
			Confidence: n.Confidence(raw),
			Evidence:   cloneStrings(scores.Evidence[category]),
			Source:     domain.SourceLexical,
		})
	}
	sortSuggestions(out)
	if n.Limit > 0 && len(out) > n.Limit {
		out = out[:n.Limit]
	}
	return out
}

func sortSuggestions(list []domain.CategorySuggestion) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Confidence != list[j].Confidence {
			return list[i].Confidence > list[j].Confidence
		}
		return list[i].Category < list[j].Category
	})
}

// roundConfidence keeps six decimals of a lexical confidence.
func roundConfidence(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
