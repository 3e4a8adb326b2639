// Package matching classifies every JD keyword against the CV keyword pool of
// the same category, short-circuiting literal matches before consulting the
// oracle.
package matching

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cvscore/cvscore/internal/keyword"
	"github.com/cvscore/cvscore/internal/oracle"
)

// MatchType classifies how a JD keyword relates to the CV pool.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchSemantic MatchType = "semantic"
	MatchPartial  MatchType = "partial"
	MatchMissing  MatchType = "missing"
)

// Confidence bands per match type. Exact is always 1.0 and missing always 0.0.
const (
	semanticMin = 0.80
	semanticMax = 0.95
	partialMin  = 0.60
)

// KeywordMatch is the classification outcome for a single JD keyword.
// CVKeyword is empty when the match type is missing.
type KeywordMatch struct {
	JDKeyword  string           `json:"jd_keyword"`
	CVKeyword  string           `json:"cv_keyword,omitempty"`
	MatchType  MatchType        `json:"match_type"`
	Confidence float64          `json:"confidence"`
	Category   keyword.Category `json:"category"`
}

// Warning records a non-fatal degradation during matching.
type Warning struct {
	Category keyword.Category `json:"category"`
	Keyword  string           `json:"keyword,omitempty"`
	Reason   string           `json:"reason"`
}

// Matcher obtains candidate matches from the oracle and classifies them.
type Matcher struct {
	oracle  oracle.Oracle
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Matcher. The timeout bounds every oracle compare call; expiry
// degrades the affected keyword to missing instead of failing the run.
func New(o oracle.Oracle, timeout time.Duration, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Matcher{
		oracle:  o,
		timeout: timeout,
		logger:  logger,
	}
}

// MatchCategory classifies every JD keyword of a single category against the
// CV candidates of that category. Oracle failures and timeouts never surface
// as errors: the affected keyword degrades to missing and a warning records
// why. Categories are independent; results never interact before scoring.
func (m *Matcher) MatchCategory(ctx context.Context, c keyword.Category, jdWords, cvWords []string) ([]KeywordMatch, []Warning) {
	matches := make([]KeywordMatch, 0, len(jdWords))
	var warnings []Warning

	for _, jdWord := range jdWords {
		// Literal matches skip the oracle entirely: deterministic and free.
		if cvWord, ok := findExact(jdWord, cvWords); ok {
			matches = append(matches, KeywordMatch{
				JDKeyword:  jdWord,
				CVKeyword:  cvWord,
				MatchType:  MatchExact,
				Confidence: 1.0,
				Category:   c,
			})
			continue
		}

		if len(cvWords) == 0 {
			matches = append(matches, missing(jdWord, c))
			continue
		}

		suggestion, err := m.compare(ctx, jdWord, cvWords, c)
		if err != nil {
			m.logger.Warn("oracle comparison failed, degrading keyword to missing",
				zap.String("category", string(c)),
				zap.String("keyword", jdWord),
				zap.Error(err),
			)
			warnings = append(warnings, Warning{
				Category: c,
				Keyword:  jdWord,
				Reason:   err.Error(),
			})
			matches = append(matches, missing(jdWord, c))
			continue
		}

		matches = append(matches, classify(jdWord, c, suggestion))
	}

	return matches, warnings
}

func (m *Matcher) compare(ctx context.Context, target string, candidates []string, c keyword.Category) (*oracle.Suggestion, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	return m.oracle.Compare(ctx, target, candidates, c)
}

// classify maps an oracle suggestion onto the fixed confidence bands:
// semantic [0.80,0.95], partial [0.60,0.80), anything below is missing.
func classify(jdWord string, c keyword.Category, s *oracle.Suggestion) KeywordMatch {
	if s == nil || strings.TrimSpace(s.Candidate) == "" || s.Confidence < partialMin {
		return missing(jdWord, c)
	}

	matchType := MatchPartial
	confidence := s.Confidence
	if confidence >= semanticMin {
		matchType = MatchSemantic
		if confidence > semanticMax {
			confidence = semanticMax
		}
	}

	return KeywordMatch{
		JDKeyword:  jdWord,
		CVKeyword:  strings.TrimSpace(s.Candidate),
		MatchType:  matchType,
		Confidence: confidence,
		Category:   c,
	}
}

func missing(jdWord string, c keyword.Category) KeywordMatch {
	return KeywordMatch{
		JDKeyword:  jdWord,
		MatchType:  MatchMissing,
		Confidence: 0.0,
		Category:   c,
	}
}

func findExact(target string, candidates []string) (string, bool) {
	for _, candidate := range candidates {
		if strings.EqualFold(candidate, target) {
			return candidate, true
		}
	}
	return "", false
}
