// Package scoring aggregates validated per-category matches into a weighted
// overall score plus a bonus/penalty adjustment layer.
package scoring

import (
	"strings"

	"github.com/cvscore/cvscore/internal/keyword"
	"github.com/cvscore/cvscore/internal/matching"
)

// Bonus configures the adjustment layer applied once after the weighted sum.
// Required and Preferred name JD keywords (matched case-insensitively); with
// both lists empty the layer contributes nothing.
type Bonus struct {
	RequiredDelta          float64
	PreferredDelta         float64
	MissingRequiredPenalty float64
	Required               []string
	Preferred              []string
}

// DefaultBonus returns the out-of-the-box bonus deltas.
func DefaultBonus() Bonus {
	return Bonus{
		RequiredDelta:          2.0,
		PreferredDelta:         1.0,
		MissingRequiredPenalty: 3.0,
	}
}

// CategoryComparison is the scored outcome of a single category.
type CategoryComparison struct {
	Category      keyword.Category        `json:"category"`
	Weight        float64                 `json:"weight"`
	Matches       []matching.KeywordMatch `json:"matches"`
	MatchRate     float64                 `json:"match_rate"`
	WeightedScore float64                 `json:"weighted_score"`
	MaxScore      float64                 `json:"max_score"`
	Matched       []string                `json:"matched"`
	Missing       []string                `json:"missing"`
}

// Scorer computes the weighted overall score. Weights and bonus deltas are
// fixed at construction time; scoring itself is pure arithmetic and never
// fails.
type Scorer struct {
	weights keyword.Weights
	bonus   Bonus
}

// New creates a Scorer with the given weights and bonus configuration.
func New(weights keyword.Weights, bonus Bonus) *Scorer {
	return &Scorer{weights: weights, bonus: bonus}
}

// Score aggregates validated matches per category into comparisons, the
// overall score (weighted sum plus bonus points) and the bonus points alone.
// A category with no JD keywords contributes zero. The bonus layer may push
// the overall score outside [0,100].
func (s *Scorer) Score(byCategory map[keyword.Category][]matching.KeywordMatch) ([]CategoryComparison, float64, float64) {
	comparisons := make([]CategoryComparison, 0, len(keyword.All))
	overall := 0.0

	for _, c := range keyword.All {
		matches := byCategory[c]
		weight := s.weights[c]

		comparison := CategoryComparison{
			Category: c,
			Weight:   weight,
			Matches:  matches,
			MaxScore: weight * 100,
			Matched:  []string{},
			Missing:  []string{},
		}

		for _, m := range matches {
			if m.MatchType == matching.MatchMissing {
				comparison.Missing = append(comparison.Missing, m.JDKeyword)
			} else {
				comparison.Matched = append(comparison.Matched, m.JDKeyword)
			}
		}

		if len(matches) > 0 {
			comparison.MatchRate = float64(len(comparison.Matched)) / float64(len(matches))
			comparison.WeightedScore = comparison.MatchRate * weight * 100
		}

		overall += comparison.WeightedScore
		comparisons = append(comparisons, comparison)
	}

	bonus := s.bonusPoints(byCategory)

	return comparisons, overall + bonus, bonus
}

// bonusPoints walks the required and preferred keyword lists against the
// classified matches. A required keyword earns its delta only on an exact
// match and the penalty when classified missing; required keywords absent
// from the JD set are skipped since there is nothing to judge. A preferred
// keyword earns its delta on any non-missing match.
func (s *Scorer) bonusPoints(byCategory map[keyword.Category][]matching.KeywordMatch) float64 {
	points := 0.0

	for _, required := range s.bonus.Required {
		m, ok := findMatch(byCategory, required)
		if !ok {
			continue
		}
		switch m.MatchType {
		case matching.MatchExact:
			points += s.bonus.RequiredDelta
		case matching.MatchMissing:
			points -= s.bonus.MissingRequiredPenalty
		}
	}

	for _, preferred := range s.bonus.Preferred {
		m, ok := findMatch(byCategory, preferred)
		if !ok {
			continue
		}
		if m.MatchType != matching.MatchMissing {
			points += s.bonus.PreferredDelta
		}
	}

	return points
}

func findMatch(byCategory map[keyword.Category][]matching.KeywordMatch, jdWord string) (matching.KeywordMatch, bool) {
	for _, matches := range byCategory {
		for _, m := range matches {
			if strings.EqualFold(m.JDKeyword, jdWord) {
				return m, true
			}
		}
	}
	return matching.KeywordMatch{}, false
}
