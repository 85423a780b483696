// Package validationlog implements the append-only ValidationLog repository.
package validationlog

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/contentflow-backend/internal/adapter/postgres"
	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

const table = "validation_logs"

var columns = []string{"id", "content_id", "passed", "errors", "warnings", "metrics", "created_at"}

// Repo provides validation log persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new validation log repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

type row struct {
	ID        uuid.UUID                `db:"id"`
	ContentID uuid.UUID                `db:"content_id"`
	Passed    bool                     `db:"passed"`
	Errors    []domain.ValidationIssue `db:"errors"`
	Warnings  []domain.ValidationIssue `db:"warnings"`
	Metrics   domain.ValidationMetrics `db:"metrics"`
	CreatedAt time.Time                `db:"created_at"`
}

// Append writes one validation log row and returns it with its id and timestamp.
func (r *Repo) Append(ctx context.Context, contentID uuid.UUID, res domain.ValidationResult) (domain.ValidationLog, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	entry := domain.ValidationLog{
		ID:        uuid.New(),
		ContentID: contentID,
		Passed:    res.Passed,
		Errors:    nonNil(res.Errors),
		Warnings:  nonNil(res.Warnings),
		Metrics:   res.Metrics,
		CreatedAt: time.Now().UTC(),
	}

	_, err := postgres.Exec(ctx, q, postgres.Builder().
		Insert(table).Columns(columns...).
		Values(entry.ID, entry.ContentID, entry.Passed, entry.Errors, entry.Warnings, entry.Metrics, entry.CreatedAt))
	if err != nil {
		return domain.ValidationLog{}, postgres.MapError(err, "validation_log", entry.ID)
	}
	return entry, nil
}

// ListByContent returns the validation history of an item, newest first.
func (r *Repo) ListByContent(ctx context.Context, contentID uuid.UUID, limit int) ([]domain.ValidationLog, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sel := postgres.Builder().
		Select(columns...).From(table).
		Where(sq.Eq{"content_id": contentID}).
		OrderBy("created_at DESC", "id")
	if limit > 0 {
		sel = sel.Limit(uint64(limit))
	}

	var rows []row
	if err := postgres.Select(ctx, q, &rows, sel); err != nil {
		return nil, fmt.Errorf("list validation_logs: %w", err)
	}

	logs := make([]domain.ValidationLog, len(rows))
	for i, rw := range rows {
		logs[i] = domain.ValidationLog{
			ID:        rw.ID,
			ContentID: rw.ContentID,
			Passed:    rw.Passed,
			Errors:    rw.Errors,
			Warnings:  rw.Warnings,
			Metrics:   rw.Metrics,
			CreatedAt: rw.CreatedAt,
		}
	}
	return logs, nil
}

func nonNil(issues []domain.ValidationIssue) []domain.ValidationIssue {
	if issues == nil {
		return []domain.ValidationIssue{}
	}
	return issues
}
