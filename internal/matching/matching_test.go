package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cvscore/cvscore/internal/keyword"
	"github.com/cvscore/cvscore/internal/oracle"
)

type stubOracle struct {
	suggestions map[string]*oracle.Suggestion
	err         error
	compares    int
}

func (s *stubOracle) Extract(_ context.Context, _ string, _ keyword.Source) (keyword.Set, error) {
	return nil, errors.New("extract should not be called during matching")
}

func (s *stubOracle) Compare(_ context.Context, target string, _ []string, _ keyword.Category) (*oracle.Suggestion, error) {
	s.compares++
	if s.err != nil {
		return nil, s.err
	}
	return s.suggestions[target], nil
}

func TestMatchCategoryExactShortCircuit(t *testing.T) {
	stub := &stubOracle{}
	matcher := New(stub, time.Second, zap.NewNop())

	matches, warnings := matcher.MatchCategory(context.Background(), keyword.TechnicalSkills,
		[]string{"python", "SQL"},
		[]string{"Python", "SQL", "Excel"},
	)

	require.Len(t, matches, 2)
	assert.Empty(t, warnings)
	assert.Zero(t, stub.compares, "literal matches must not reach the oracle")

	assert.Equal(t, "Python", matches[0].CVKeyword, "exact match keeps the cv spelling")
	assert.Equal(t, MatchExact, matches[0].MatchType)
	assert.Equal(t, 1.0, matches[0].Confidence)
	assert.Equal(t, MatchExact, matches[1].MatchType)
}

func TestMatchCategoryClassifiesByConfidence(t *testing.T) {
	tests := []struct {
		name           string
		suggestion     *oracle.Suggestion
		wantType       MatchType
		wantConfidence float64
		wantCVKeyword  string
	}{
		{
			name:           "semantic",
			suggestion:     &oracle.Suggestion{Candidate: "Golang", MatchType: "semantic", Confidence: 0.85},
			wantType:       MatchSemantic,
			wantConfidence: 0.85,
			wantCVKeyword:  "Golang",
		},
		{
			name:           "semantic clamped to band ceiling",
			suggestion:     &oracle.Suggestion{Candidate: "Golang", MatchType: "semantic", Confidence: 0.99},
			wantType:       MatchSemantic,
			wantConfidence: 0.95,
			wantCVKeyword:  "Golang",
		},
		{
			name:           "partial",
			suggestion:     &oracle.Suggestion{Candidate: "Golang", MatchType: "partial", Confidence: 0.65},
			wantType:       MatchPartial,
			wantConfidence: 0.65,
			wantCVKeyword:  "Golang",
		},
		{
			name:           "below threshold is missing",
			suggestion:     &oracle.Suggestion{Candidate: "Golang", Confidence: 0.55},
			wantType:       MatchMissing,
			wantConfidence: 0.0,
		},
		{
			name:           "no suggestion is missing",
			suggestion:     nil,
			wantType:       MatchMissing,
			wantConfidence: 0.0,
		},
		{
			name:           "empty candidate is missing",
			suggestion:     &oracle.Suggestion{Candidate: "  ", Confidence: 0.9},
			wantType:       MatchMissing,
			wantConfidence: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubOracle{suggestions: map[string]*oracle.Suggestion{"Go": tt.suggestion}}
			matcher := New(stub, time.Second, zap.NewNop())

			matches, warnings := matcher.MatchCategory(context.Background(), keyword.TechnicalSkills,
				[]string{"Go"},
				[]string{"Golang", "Python"},
			)

			require.Len(t, matches, 1)
			assert.Empty(t, warnings)
			assert.Equal(t, tt.wantType, matches[0].MatchType)
			assert.Equal(t, tt.wantConfidence, matches[0].Confidence)
			assert.Equal(t, tt.wantCVKeyword, matches[0].CVKeyword)
		})
	}
}

func TestMatchCategoryEmptyPoolSkipsOracle(t *testing.T) {
	stub := &stubOracle{}
	matcher := New(stub, time.Second, zap.NewNop())

	matches, warnings := matcher.MatchCategory(context.Background(), keyword.SoftSkills,
		[]string{"leadership", "communication"},
		nil,
	)

	require.Len(t, matches, 2)
	assert.Empty(t, warnings)
	assert.Zero(t, stub.compares)
	for _, m := range matches {
		assert.Equal(t, MatchMissing, m.MatchType)
		assert.Equal(t, 0.0, m.Confidence)
		assert.Empty(t, m.CVKeyword)
	}
}

func TestMatchCategoryDegradesOnOracleFailure(t *testing.T) {
	stub := &stubOracle{err: context.DeadlineExceeded}
	matcher := New(stub, time.Second, zap.NewNop())

	matches, warnings := matcher.MatchCategory(context.Background(), keyword.SoftSkills,
		[]string{"leadership", "communication"},
		[]string{"teamwork"},
	)

	require.Len(t, matches, 2)
	require.Len(t, warnings, 2, "every degraded keyword gets its own warning")

	for i, m := range matches {
		assert.Equal(t, MatchMissing, m.MatchType)
		assert.Equal(t, 0.0, m.Confidence)
		assert.Equal(t, keyword.SoftSkills, warnings[i].Category)
	}
	assert.Equal(t, "leadership", warnings[0].Keyword)
}
