// Package validation implements the publish-readiness gate.
//
// Hard errors (fail the run): raw_links, internal_links, external_links,
// word_count, title_length, meta_description_length, structured_data and
// infrastructure. Warnings never fail a run: word count close to a bound,
// duplicate link targets, affiliate links present and empty anchor text.
package validation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

type logRepo interface {
	Append(ctx context.Context, contentID uuid.UUID, res domain.ValidationResult) (domain.ValidationLog, error)
}

// Rules are the bounds every item is checked against. They are fixed for the
// lifetime of a Gate.
type Rules struct {
	MinInternalLinks int
	MaxInternalLinks int
	MinExternalLinks int
	MinWords         int
	MaxWords         int
	MinTitleLength   int
	MaxTitleLength   int
	MinMetaLength    int
	MaxMetaLength    int
	// WordCountMargin is the fraction of a word bound inside which a passing
	// count is reported as a warning.
	WordCountMargin float64
}

// DefaultRules returns the standard editorial bounds.
func DefaultRules() Rules {
	return Rules{
		MinInternalLinks: 2,
		MaxInternalLinks: 5,
		MinExternalLinks: 1,
		MinWords:         1500,
		MaxWords:         3000,
		MinTitleLength:   50,
		MaxTitleLength:   60,
		MinMetaLength:    150,
		MaxMetaLength:    160,
		WordCountMargin:  0.05,
	}
}

// Gate runs the rule set and records every run.
type Gate struct {
	rules Rules
	logs  logRepo
	log   *slog.Logger
}

// NewGate creates a validation gate.
func NewGate(log *slog.Logger, logs logRepo, rules Rules) *Gate {
	return &Gate{
		rules: rules,
		logs:  logs,
		log:   log.With("service", "validation"),
	}
}

// Input is the content checked by one run.
type Input struct {
	ContentID       uuid.UUID
	HTML            string
	Title           string
	MetaDescription string
}

// Validate checks in against the rules and appends exactly one validation log
// row. A check that cannot run yields passed=false with an infrastructure
// error. The returned error is non-nil only when the log row could not be
// written; it wraps domain.ErrValidationUnavailable.
func (g *Gate) Validate(ctx context.Context, in Input) (domain.ValidationResult, error) {
	res, err := g.evaluate(in)
	if err != nil {
		g.log.ErrorContext(ctx, "validation check failed",
			slog.String("content_id", in.ContentID.String()),
			slog.String("error", err.Error()))
		res = domain.ValidationResult{
			Passed:   false,
			Errors:   []domain.ValidationIssue{{Type: IssueInfrastructure, Message: err.Error()}},
			Warnings: []domain.ValidationIssue{},
		}
	}

	if _, err := g.logs.Append(ctx, in.ContentID, res); err != nil {
		return res, fmt.Errorf("append validation log: %w: %w", domain.ErrValidationUnavailable, err)
	}

	g.log.InfoContext(ctx, "content validated",
		slog.String("content_id", in.ContentID.String()),
		slog.Bool("passed", res.Passed),
		slog.Int("errors", len(res.Errors)),
		slog.Int("warnings", len(res.Warnings)),
		slog.Int("word_count", res.Metrics.WordCount),
	)

	return res, nil
}
