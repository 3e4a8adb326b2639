// Package extraction turns raw document text into a categorized keyword set
// by delegating to the semantic oracle and enforcing lexical fidelity on its
// output: a term that does not literally occur in the source text is dropped.
package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cvscore/cvscore/internal/keyword"
	"github.com/cvscore/cvscore/internal/oracle"
)

// Error is the fatal extraction failure. No further pipeline stage can
// operate without both keyword sets, so it aborts the whole run.
type Error struct {
	Role keyword.Source
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extracting %s keywords: %v", e.Role, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Extractor builds keyword sets from document text via the oracle.
type Extractor struct {
	oracle  oracle.Oracle
	timeout time.Duration
	logger  *zap.Logger
}

// New creates an Extractor. The timeout bounds every oracle extraction call;
// zero disables the bound.
func New(o oracle.Oracle, timeout time.Duration, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Extractor{
		oracle:  o,
		timeout: timeout,
		logger:  logger,
	}
}

// Extract returns the deduplication-ready keyword set for the document.
// Oracle output is repaired into the five known categories; terms that do not
// literally occur in the text are discarded. An empty document yields an
// empty set without consulting the oracle.
func (e *Extractor) Extract(ctx context.Context, text string, role keyword.Source) (keyword.Set, error) {
	if strings.TrimSpace(text) == "" {
		e.logger.Debug("document is empty, skipping oracle extraction", zap.String("role", string(role)))
		return keyword.NewSet(), nil
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	raw, err := e.oracle.Extract(ctx, text, role)
	if err != nil {
		return nil, &Error{Role: role, Err: err}
	}

	return e.repair(raw, text, role), nil
}

// repair validates the oracle's output shape and enforces the literal
// occurrence rule. Unknown category keys are dropped, missing ones become
// empty lists.
func (e *Extractor) repair(raw keyword.Set, text string, role keyword.Source) keyword.Set {
	for c := range raw {
		if !c.Valid() {
			e.logger.Debug("dropping unknown category from oracle output",
				zap.String("role", string(role)),
				zap.String("category", string(c)),
			)
		}
	}

	lowerText := strings.ToLower(text)

	out := keyword.NewSet()
	for _, c := range keyword.All {
		kept := make([]string, 0, len(raw[c]))
		for _, term := range raw[c] {
			term = strings.TrimSpace(term)
			if term == "" {
				continue
			}
			if !strings.Contains(lowerText, strings.ToLower(term)) {
				e.logger.Debug("dropping term not present in source text",
					zap.String("role", string(role)),
					zap.String("category", string(c)),
					zap.String("term", term),
				)
				continue
			}
			kept = append(kept, term)
		}
		out[c] = kept
	}

	return out
}
