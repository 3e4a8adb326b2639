// Package pipeline orchestrates a full compatibility run: concurrent CV/JD
// extraction, deduplication, per-category matching and validation behind a
// join barrier, then scoring.
package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cvscore/cvscore/internal/extraction"
	"github.com/cvscore/cvscore/internal/keyword"
	"github.com/cvscore/cvscore/internal/matching"
	"github.com/cvscore/cvscore/internal/scoring"
	"github.com/cvscore/cvscore/internal/validation"
)

// State tracks where a run currently is. Failed is reachable only from
// Extracting or an unrecoverable internal error; matching degradations keep
// the run moving towards Scoring.
type State string

const (
	StateIdle          State = "idle"
	StateExtracting    State = "extracting"
	StateDeduplicating State = "deduplicating"
	StateMatching      State = "matching"
	StateValidating    State = "validating"
	StateScoring       State = "scoring"
	StateComplete      State = "complete"
	StateFailed        State = "failed"
)

// Result is the terminal, immutable aggregate of a run.
type Result struct {
	RunID               string                       `json:"run_id"`
	Fingerprint         string                       `json:"fingerprint"`
	OverallScore        float64                      `json:"overall_score"`
	BonusPoints         float64                      `json:"bonus_points"`
	CategoryComparisons []scoring.CategoryComparison `json:"category_comparisons"`
	Recommendations     []string                     `json:"recommendations"`
	Warnings            []matching.Warning           `json:"warnings,omitempty"`
}

// Pipeline wires the run stages together. It holds no per-run state; a single
// Pipeline may serve concurrent runs.
type Pipeline struct {
	extractor *extraction.Extractor
	matcher   *matching.Matcher
	validator *validation.Validator
	scorer    *scoring.Scorer
	logger    *zap.Logger
}

// New creates a Pipeline from its stage implementations.
func New(extractor *extraction.Extractor, matcher *matching.Matcher, validator *validation.Validator, scorer *scoring.Scorer, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		extractor: extractor,
		matcher:   matcher,
		validator: validator,
		scorer:    scorer,
		logger:    logger,
	}
}

// categoryOutcome is one matching branch's output. Branches write to disjoint
// slots, so the join needs no locking.
type categoryOutcome struct {
	matches  []matching.KeywordMatch
	warnings []matching.Warning
}

// Run executes the whole pipeline for the given document pair. It returns a
// complete Result (possibly carrying warnings for degraded keywords or
// categories) or a single fatal error from the extraction stage.
func (p *Pipeline) Run(ctx context.Context, cvText, jdText string) (*Result, error) {
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID))

	state := StateIdle
	transition := func(next State) {
		state = next
		log.Debug("run state changed", zap.String("state", string(state)))
	}

	transition(StateExtracting)

	var cvSet, jdSet keyword.Set
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		cvSet, err = p.extractor.Extract(egCtx, cvText, keyword.SourceCV)
		return err
	})
	eg.Go(func() error {
		var err error
		jdSet, err = p.extractor.Extract(egCtx, jdText, keyword.SourceJD)
		return err
	})
	if err := eg.Wait(); err != nil {
		transition(StateFailed)
		return nil, err
	}

	transition(StateDeduplicating)

	cvSet, cvSteps := keyword.Deduplicate(cvSet)
	jdSet, jdSteps := keyword.Deduplicate(jdSet)
	logSteps(log, keyword.SourceCV, cvSteps)
	logSteps(log, keyword.SourceJD, jdSteps)

	transition(StateMatching)

	// Matching and validation run per category; validation is pure, so each
	// branch validates its own matches before the barrier.
	outcomes := make([]categoryOutcome, len(keyword.All))
	mg, mgCtx := errgroup.WithContext(ctx)
	for i, c := range keyword.All {
		mg.Go(func() error {
			matches, warnings := p.matcher.MatchCategory(mgCtx, c, jdSet.Get(c), cvSet.Get(c))
			outcomes[i] = categoryOutcome{
				matches:  p.validator.Apply(matches, cvSet, cvText),
				warnings: warnings,
			}
			return nil
		})
	}

	// Barrier: scoring must not start before every branch has completed or
	// been marked degraded.
	if err := mg.Wait(); err != nil {
		transition(StateFailed)
		return nil, fmt.Errorf("matching: %w", err)
	}

	if err := ctx.Err(); err != nil {
		transition(StateFailed)
		return nil, err
	}

	transition(StateValidating)

	byCategory := make(map[keyword.Category][]matching.KeywordMatch, len(keyword.All))
	var warnings []matching.Warning
	for i, c := range keyword.All {
		byCategory[c] = outcomes[i].matches
		warnings = append(warnings, outcomes[i].warnings...)
	}

	transition(StateScoring)

	comparisons, overall, bonus := p.scorer.Score(byCategory)

	result := &Result{
		RunID:               runID,
		Fingerprint:         Fingerprint(cvText, jdText),
		OverallScore:        overall,
		BonusPoints:         bonus,
		CategoryComparisons: comparisons,
		Recommendations:     scoring.Recommendations(comparisons),
		Warnings:            warnings,
	}

	transition(StateComplete)

	log.Info("run complete",
		zap.Float64("overall_score", result.OverallScore),
		zap.Float64("bonus_points", result.BonusPoints),
		zap.Int("warnings", len(result.Warnings)),
	)

	return result, nil
}

// Fingerprint derives a deterministic identifier from the input text pair.
// External caching collaborators key on it; the core itself never caches.
func Fingerprint(cvText, jdText string) string {
	h := sha256.New()
	h.Write([]byte(cvText))
	h.Write([]byte{0})
	h.Write([]byte(jdText))
	return fmt.Sprintf("%x", h.Sum(nil))
}

func logSteps(log *zap.Logger, source keyword.Source, steps []keyword.Step) {
	for _, step := range steps {
		if step.Dropped == 0 {
			continue
		}
		log.Debug("deduplication step",
			zap.String("source", string(source)),
			zap.String("category", string(step.Category)),
			zap.Int("initial", step.Initial),
			zap.Int("dropped", step.Dropped),
			zap.Int("left", step.Left),
		)
	}
}
