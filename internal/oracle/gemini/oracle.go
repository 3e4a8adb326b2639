package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/cvscore/cvscore/internal/keyword"
	"github.com/cvscore/cvscore/internal/oracle"
	"github.com/cvscore/cvscore/internal/utils"
)

//go:embed extract_prompt.md
var extractPromptTemplate string

//go:embed compare_prompt.md
var comparePromptTemplate string

const (
	extractSystemPrompt = "You are a precise keyword extraction assistant. Extract only terms that appear verbatim in the provided document."
	compareSystemPrompt = "You are a precise keyword comparison assistant. Propose a candidate only when it genuinely matches the target keyword."

	defaultMaxLogLength = 200
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

// Oracle implements the semantic oracle on top of the Gemini generator.
type Oracle struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

// New creates a Gemini-backed oracle.
func New(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Oracle {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Oracle{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Extract asks Gemini for categorized keywords occurring in the text.
func (o *Oracle) Extract(ctx context.Context, text string, role keyword.Source) (keyword.Set, error) {
	prompt := strings.ReplaceAll(extractPromptTemplate, "{{ROLE}}", string(role))
	prompt = strings.ReplaceAll(prompt, "{{TEXT}}", text)

	o.logger.Debug("gemini extract request",
		zap.String("role", string(role)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
	)

	raw, err := o.generator.GenerateContent(ctx, extractSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("gemini extract response",
		zap.String("role", string(role)),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, o.maxLogLen)),
	)

	return parseExtractResponse(raw)
}

// Compare asks Gemini for the best candidate match for the target keyword.
// A nil suggestion means the oracle proposes no candidate.
func (o *Oracle) Compare(ctx context.Context, target string, candidates []string, category keyword.Category) (*oracle.Suggestion, error) {
	candidatesJSON, err := json.Marshal(candidates)
	if err != nil {
		return nil, fmt.Errorf("marshal candidates: %w", err)
	}

	prompt := strings.ReplaceAll(comparePromptTemplate, "{{CATEGORY}}", string(category))
	prompt = strings.ReplaceAll(prompt, "{{TARGET}}", target)
	prompt = strings.ReplaceAll(prompt, "{{CANDIDATES}}", string(candidatesJSON))

	raw, err := o.generator.GenerateContent(ctx, compareSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("gemini compare response",
		zap.String("target", target),
		zap.String("category", string(category)),
		zap.String("response_preview", utils.TruncateForLog(raw, o.maxLogLen)),
	)

	return parseCompareResponse(raw)
}

func parseExtractResponse(raw string) (keyword.Set, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini extract response: %w", err)
	}

	var payload map[string][]string
	if err := weakDecode(data, &payload); err != nil {
		return nil, fmt.Errorf("decode gemini extract response: %w", err)
	}

	set := make(keyword.Set, len(payload))
	for key, words := range payload {
		set[keyword.Category(key)] = words
	}

	return set, nil
}

type compareResponse struct {
	Candidate  *string `json:"candidate"`
	MatchType  string  `json:"match_type"`
	Confidence float64 `json:"confidence"`
}

func parseCompareResponse(raw string) (*oracle.Suggestion, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" || cleaned == "null" {
		return nil, nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini compare response: %w", err)
	}

	var resp compareResponse
	if err := weakDecode(data, &resp); err != nil {
		return nil, fmt.Errorf("decode gemini compare response: %w", err)
	}

	if resp.Candidate == nil || strings.TrimSpace(*resp.Candidate) == "" {
		return nil, nil
	}

	return &oracle.Suggestion{
		Candidate:  strings.TrimSpace(*resp.Candidate),
		MatchType:  strings.TrimSpace(strings.ToLower(resp.MatchType)),
		Confidence: resp.Confidence,
	}, nil
}

// weakDecode maps a loosely typed JSON payload onto the target, tolerating
// numbers encoded as strings and similar model quirks.
func weakDecode(input, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
