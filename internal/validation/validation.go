// Package validation is the anti-hallucination gate: every proposed match is
// re-checked against the literal CV source before it is accepted. A match
// that fails here is force-downgraded to missing regardless of what the
// oracle claimed.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/cvscore/cvscore/internal/keyword"
	"github.com/cvscore/cvscore/internal/matching"
)

// Validator re-checks proposed matches against the deduplicated CV set and
// the raw CV text.
type Validator struct {
	logger *zap.Logger
}

// New creates a Validator.
func New(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{logger: logger}
}

// Apply returns a copy of matches where every non-missing entry has passed
// both checks: membership in the CV set for its category, and literal
// presence in the CV text. Failing entries are overwritten to missing with
// confidence 0.0; the override is unconditional.
func (v *Validator) Apply(matches []matching.KeywordMatch, cvSet keyword.Set, cvText string) []matching.KeywordMatch {
	out := make([]matching.KeywordMatch, len(matches))
	copy(out, matches)

	for i := range out {
		m := &out[i]
		if m.MatchType == matching.MatchMissing {
			continue
		}

		if reason, ok := v.check(m, cvSet, cvText); !ok {
			v.logger.Debug("rejecting proposed match",
				zap.String("category", string(m.Category)),
				zap.String("jd_keyword", m.JDKeyword),
				zap.String("cv_keyword", m.CVKeyword),
				zap.String("reason", reason),
			)
			m.CVKeyword = ""
			m.MatchType = matching.MatchMissing
			m.Confidence = 0.0
		}
	}

	return out
}

func (v *Validator) check(m *matching.KeywordMatch, cvSet keyword.Set, cvText string) (string, bool) {
	if m.CVKeyword == "" {
		return "no cv keyword proposed", false
	}

	if !cvSet.Contains(m.Category, m.CVKeyword) {
		return fmt.Sprintf("%q is not a member of the cv %s set", m.CVKeyword, m.Category), false
	}

	if !AppearsInText(m.CVKeyword, cvText) {
		return fmt.Sprintf("%q not found in cv source text", m.CVKeyword), false
	}

	return "", true
}

// AppearsInText reports whether the term occurs in the text, either as a
// case-insensitive substring or as a case-insensitive word-boundary match.
func AppearsInText(term, text string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}

	if strings.Contains(strings.ToLower(text), strings.ToLower(term)) {
		return true
	}

	pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
	if err != nil {
		return false
	}

	return pattern.MatchString(text)
}
