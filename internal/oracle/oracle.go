package oracle

import (
	"context"

	"github.com/cvscore/cvscore/internal/keyword"
)

// Suggestion is a fuzzy match proposed by the oracle for a target keyword.
// Confidence is the oracle's stated confidence in [0,1]; MatchType is the
// oracle's own classification and is advisory only.
type Suggestion struct {
	Candidate  string
	MatchType  string
	Confidence float64
}

// Oracle is the injected semantic capability used for keyword extraction and
// fuzzy comparison. Implementations are expected to be non-deterministic; all
// correctness-critical checks happen outside of it.
type Oracle interface {
	// Extract returns the categorized keywords that literally occur in text.
	Extract(ctx context.Context, text string, role keyword.Source) (keyword.Set, error)

	// Compare proposes the best candidate for the target keyword, or nil when
	// no candidate is a plausible match.
	Compare(ctx context.Context, target string, candidates []string, category keyword.Category) (*Suggestion, error)
}
