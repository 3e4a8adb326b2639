package keyword

import "strings"

// Step describes the result of deduplicating a single category.
type Step struct {
	Category Category
	Initial  int
	Dropped  int
	Left     int
}

// Deduplicate resolves duplicates across categories and truncates every
// category to its first MaxPerCategory entries, preserving original order.
// A keyword string appearing in more than one category (case-insensitive
// compare) is retained only in the highest-priority category. The operation is
// pure: the input set is never modified.
func Deduplicate(s Set) (Set, []Step) {
	// owner is the highest-priority category seen so far for a keyword.
	owner := make(map[string]Category)
	for _, c := range All {
		for _, w := range s[c] {
			key := strings.ToLower(strings.TrimSpace(w))
			if key == "" {
				continue
			}
			current, seen := owner[key]
			if !seen || Priority(c) > Priority(current) {
				owner[key] = c
			}
		}
	}

	out := NewSet()
	steps := make([]Step, 0, len(All))
	for _, c := range All {
		initial := len(s[c])
		kept := make([]string, 0, initial)
		taken := make(map[string]struct{}, initial)
		for _, w := range s[c] {
			key := strings.ToLower(strings.TrimSpace(w))
			if key == "" {
				continue
			}
			if owner[key] != c {
				continue
			}
			// Repeats inside a single category collapse to the first occurrence.
			if _, dup := taken[key]; dup {
				continue
			}
			taken[key] = struct{}{}
			kept = append(kept, w)
		}
		if len(kept) > MaxPerCategory {
			kept = kept[:MaxPerCategory]
		}
		out[c] = kept
		steps = append(steps, Step{
			Category: c,
			Initial:  initial,
			Dropped:  initial - len(kept),
			Left:     len(kept),
		})
	}

	return out, steps
}
