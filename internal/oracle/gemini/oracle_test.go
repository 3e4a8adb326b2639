package gemini

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/cvscore/cvscore/internal/keyword"
)

type stubGenerator struct {
	response   string
	err        error
	lastSystem string
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, message string) (string, error) {
	s.lastSystem = system
	s.lastPrompt = message
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

func TestOracleExtract(t *testing.T) {
	stub := &stubGenerator{response: `{
		"technical_skills": ["Python", "SQL"],
		"soft_skills": ["communication"],
		"domain_keywords": [],
		"experience_keywords": ["5 years"],
		"education_keywords": ["BSc"]
	}`}
	o := New(stub, zap.NewNop(), 0)

	set, err := o.Extract(context.Background(), "some cv text", keyword.SourceCV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := set[keyword.TechnicalSkills]; len(got) != 2 || got[0] != "Python" {
		t.Fatalf("unexpected technical skills: %+v", got)
	}

	if got := set[keyword.ExperienceKeywords]; len(got) != 1 || got[0] != "5 years" {
		t.Fatalf("unexpected experience keywords: %+v", got)
	}

	if !strings.Contains(stub.lastPrompt, "some cv text") {
		t.Fatalf("expected document text in prompt")
	}

	if !strings.Contains(stub.lastPrompt, "Document (CV):") {
		t.Fatalf("expected role in prompt, got: %s", stub.lastPrompt)
	}

	if stub.lastSystem == "" {
		t.Fatalf("expected system instruction to be sent")
	}
}

func TestOracleExtractHandlesCodeBlock(t *testing.T) {
	stub := &stubGenerator{response: "```json\n{\"technical_skills\": [\"Go\"]}\n```"}
	o := New(stub, zap.NewNop(), 0)

	set, err := o.Extract(context.Background(), "text", keyword.SourceJD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := set[keyword.TechnicalSkills]; len(got) != 1 || got[0] != "Go" {
		t.Fatalf("unexpected set: %+v", set)
	}
}

func TestOracleExtractRejectsUnparsablePayload(t *testing.T) {
	stub := &stubGenerator{response: "I could not process this document, sorry!"}
	o := New(stub, zap.NewNop(), 0)

	if _, err := o.Extract(context.Background(), "text", keyword.SourceCV); err == nil {
		t.Fatal("expected error for unparsable payload")
	}
}

func TestOracleCompare(t *testing.T) {
	stub := &stubGenerator{response: `{"candidate": "Golang", "match_type": "Semantic", "confidence": "0.88"}`}
	o := New(stub, zap.NewNop(), 0)

	suggestion, err := o.Compare(context.Background(), "Go", []string{"Golang", "Python"}, keyword.TechnicalSkills)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if suggestion == nil {
		t.Fatal("expected a suggestion")
	}

	if suggestion.Candidate != "Golang" {
		t.Fatalf("unexpected candidate: %q", suggestion.Candidate)
	}

	if suggestion.MatchType != "semantic" {
		t.Fatalf("unexpected match type: %q", suggestion.MatchType)
	}

	if suggestion.Confidence != 0.88 {
		t.Fatalf("expected string confidence to be coerced, got %v", suggestion.Confidence)
	}

	if !strings.Contains(stub.lastPrompt, "Target keyword: Go") {
		t.Fatalf("expected target in prompt, got: %s", stub.lastPrompt)
	}

	if !strings.Contains(stub.lastPrompt, `["Golang","Python"]`) {
		t.Fatalf("expected candidates in prompt, got: %s", stub.lastPrompt)
	}

	if !strings.Contains(stub.lastPrompt, "technical_skills") {
		t.Fatalf("expected category in prompt, got: %s", stub.lastPrompt)
	}
}

func TestOracleCompareNoCandidate(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"null literal", "null"},
		{"null candidate", `{"candidate": null, "match_type": "semantic", "confidence": 0.2}`},
		{"empty candidate", `{"candidate": "  ", "match_type": "partial", "confidence": 0.7}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubGenerator{response: tt.response}
			o := New(stub, zap.NewNop(), 0)

			suggestion, err := o.Compare(context.Background(), "Go", []string{"Python"}, keyword.TechnicalSkills)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if suggestion != nil {
				t.Fatalf("expected no suggestion, got %+v", suggestion)
			}
		})
	}
}
