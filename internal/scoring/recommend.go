package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cvscore/cvscore/internal/matching"
)

// Recommendations turns missing keywords into human-readable suggestions,
// ordered by category weight descending so the highest-impact gaps come
// first; within a category the original extraction order is kept.
func Recommendations(comparisons []CategoryComparison) []string {
	ordered := make([]CategoryComparison, len(comparisons))
	copy(ordered, comparisons)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Weight > ordered[j].Weight
	})

	var out []string
	for _, comparison := range ordered {
		label := strings.ReplaceAll(string(comparison.Category), "_", " ")
		for _, m := range comparison.Matches {
			if m.MatchType != matching.MatchMissing {
				continue
			}
			out = append(out, fmt.Sprintf("Add %q to the %s section of your CV to cover a missing job requirement.", m.JDKeyword, label))
		}
	}

	return out
}
