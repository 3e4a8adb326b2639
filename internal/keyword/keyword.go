package keyword

import (
	"fmt"
	"math"
	"strings"
)

// Category is one of the five fixed buckets used for extraction and scoring.
type Category string

const (
	TechnicalSkills    Category = "technical_skills"
	SoftSkills         Category = "soft_skills"
	DomainKeywords     Category = "domain_keywords"
	ExperienceKeywords Category = "experience_keywords"
	EducationKeywords  Category = "education_keywords"
)

// All lists the categories in their canonical order.
var All = []Category{
	TechnicalSkills,
	SoftSkills,
	DomainKeywords,
	ExperienceKeywords,
	EducationKeywords,
}

// Valid reports whether c is one of the five known categories.
func (c Category) Valid() bool {
	switch c {
	case TechnicalSkills, SoftSkills, DomainKeywords, ExperienceKeywords, EducationKeywords:
		return true
	}
	return false
}

// Source identifies which document a keyword set was extracted from.
type Source string

const (
	SourceCV Source = "CV"
	SourceJD Source = "JD"
)

// MaxPerCategory caps how many keywords a category may hold after deduplication.
const MaxPerCategory = 20

// Set maps a category to its ordered list of keywords. Insertion order is
// meaningful and preserved by all operations.
type Set map[Category][]string

// NewSet returns a Set with an empty slice for every known category.
func NewSet() Set {
	s := make(Set, len(All))
	for _, c := range All {
		s[c] = []string{}
	}
	return s
}

// Get returns the keywords stored under the category.
func (s Set) Get(c Category) []string {
	return s[c]
}

// Len returns the total number of keywords across all categories.
func (s Set) Len() int {
	total := 0
	for _, words := range s {
		total += len(words)
	}
	return total
}

// Contains reports whether the category holds the keyword, compared
// case-insensitively.
func (s Set) Contains(c Category, text string) bool {
	for _, w := range s[c] {
		if strings.EqualFold(w, text) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for c, words := range s {
		copied := make([]string, len(words))
		copy(copied, words)
		out[c] = copied
	}
	return out
}

// priorities resolves cross-category duplicates: a keyword seen in several
// categories is kept only in the one with the highest priority.
var priorities = map[Category]int{
	TechnicalSkills:    5,
	DomainKeywords:     4,
	ExperienceKeywords: 3,
	SoftSkills:         2,
	EducationKeywords:  1,
}

// Priority returns the deduplication priority of the category.
func Priority(c Category) int {
	return priorities[c]
}

// Weights maps categories to their share of the overall score.
type Weights map[Category]float64

// DefaultWeights returns the out-of-the-box category weights. They sum to 1.0.
func DefaultWeights() Weights {
	return Weights{
		TechnicalSkills:    0.35,
		SoftSkills:         0.20,
		DomainKeywords:     0.20,
		ExperienceKeywords: 0.15,
		EducationKeywords:  0.10,
	}
}

const weightSumEpsilon = 1e-9

// Validate checks that every known category has a non-negative weight and
// that the weights sum to 1.0 within floating-point epsilon.
func (w Weights) Validate() error {
	sum := 0.0
	for _, c := range All {
		weight, ok := w[c]
		if !ok {
			return fmt.Errorf("missing weight for category %q", c)
		}
		if weight < 0 {
			return fmt.Errorf("weight for category %q must not be negative", c)
		}
		sum += weight
	}
	if math.Abs(sum-1.0) > weightSumEpsilon {
		return fmt.Errorf("category weights must sum to 1.0, got %v", sum)
	}
	return nil
}
