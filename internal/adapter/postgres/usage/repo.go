// Package usage implements the append-only UsageRecord repository.
package usage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	postgres "github.com/heartmarshall/contentflow-backend/internal/adapter/postgres"
	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

const table = "usage_records"

var columns = []string{
	"id", "content_id", "provider", "model", "agent_name", "purpose",
	"input_tokens", "output_tokens", "input_cost", "output_cost", "total_cost",
	"duration_ms", "success", "error_message", "created_at",
}

// Repo provides usage record persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new usage repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

type row struct {
	ID           uuid.UUID       `db:"id"`
	ContentID    *uuid.UUID      `db:"content_id"`
	Provider     string          `db:"provider"`
	Model        string          `db:"model"`
	AgentName    string          `db:"agent_name"`
	Purpose      string          `db:"purpose"`
	InputTokens  int             `db:"input_tokens"`
	OutputTokens int             `db:"output_tokens"`
	InputCost    decimal.Decimal `db:"input_cost"`
	OutputCost   decimal.Decimal `db:"output_cost"`
	TotalCost    decimal.Decimal `db:"total_cost"`
	DurationMs   int             `db:"duration_ms"`
	Success      bool            `db:"success"`
	ErrorMessage *string         `db:"error_message"`
	CreatedAt    time.Time       `db:"created_at"`
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Insert appends one usage record. Inserting an id that already exists is a
// no-op, so a retry after an ambiguous failure is safe.
func (r *Repo) Insert(ctx context.Context, rec domain.UsageRecord) error {
	q := postgres.QuerierFromCtx(ctx, r.db)

	query, args, err := insertStmt(rec).Suffix("ON CONFLICT (id) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build usage insert: %w", err)
	}
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "usage_record", rec.ID)
	}
	return nil
}

// InsertBatch appends records in one round trip. Rows already present (same id)
// are skipped so a retried batch does not duplicate audit rows.
func (r *Repo) InsertBatch(ctx context.Context, recs []domain.UsageRecord) error {
	if len(recs) == 0 {
		return nil
	}
	q := postgres.QuerierFromCtx(ctx, r.db)

	batch := &pgx.Batch{}
	for _, rec := range recs {
		query, args, err := insertStmt(rec).Suffix("ON CONFLICT (id) DO NOTHING").ToSql()
		if err != nil {
			return fmt.Errorf("build usage insert: %w", err)
		}
		batch.Queue(query, args...)
	}

	br := q.SendBatch(ctx, batch)
	defer br.Close()

	for _, rec := range recs {
		if _, err := br.Exec(); err != nil {
			return postgres.MapError(err, "usage_record", rec.ID)
		}
	}
	return nil
}

func insertStmt(rec domain.UsageRecord) sq.InsertBuilder {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return postgres.Builder().Insert(table).Columns(columns...).Values(
		rec.ID, rec.ContentID, rec.Provider, rec.Model, rec.AgentName, string(rec.Purpose),
		rec.InputTokens, rec.OutputTokens, rec.InputCost, rec.OutputCost, rec.TotalCost,
		rec.DurationMs, rec.Success, rec.ErrorMessage, createdAt,
	)
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// ListByContent returns all usage records of an item, oldest first.
func (r *Repo) ListByContent(ctx context.Context, contentID uuid.UUID) ([]domain.UsageRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var rows []row
	err := postgres.Select(ctx, q, &rows, postgres.Builder().
		Select(columns...).From(table).
		Where(sq.Eq{"content_id": contentID}).
		OrderBy("created_at", "id"))
	if err != nil {
		return nil, fmt.Errorf("list usage_records: %w", err)
	}

	recs := make([]domain.UsageRecord, len(rows))
	for i, rw := range rows {
		recs[i] = toDomain(rw)
	}
	return recs, nil
}

const aggregateSQL = `
SELECT
    COALESCE(sum(total_cost) FILTER (WHERE success AND purpose = 'generation'), 0)   AS generation_cost,
    COALESCE(sum(total_cost) FILTER (WHERE success AND purpose = 'verification'), 0) AS verification_cost,
    COALESCE(sum(total_cost) FILTER (WHERE success AND purpose = 'other'), 0)        AS other_cost,
    COALESCE(sum(total_cost) FILTER (WHERE success), 0)                              AS total_cost,
    count(*) FILTER (WHERE success)                                                  AS successful_calls,
    count(*) FILTER (WHERE NOT success)                                              AS failed_calls,
    COALESCE(sum(input_tokens), 0)                                                   AS input_tokens,
    COALESCE(sum(output_tokens), 0)                                                  AS output_tokens
FROM usage_records
WHERE content_id = $1`

type aggregateRow struct {
	GenerationCost   decimal.Decimal `db:"generation_cost"`
	VerificationCost decimal.Decimal `db:"verification_cost"`
	OtherCost        decimal.Decimal `db:"other_cost"`
	TotalCost        decimal.Decimal `db:"total_cost"`
	SuccessfulCalls  int             `db:"successful_calls"`
	FailedCalls      int             `db:"failed_calls"`
	InputTokens      int64           `db:"input_tokens"`
	OutputTokens     int64           `db:"output_tokens"`
}

// Aggregate sums the usage of one item. Failed calls are counted but cost nothing.
func (r *Repo) Aggregate(ctx context.Context, contentID uuid.UUID) (domain.UsageAggregate, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var agg aggregateRow
	if err := pgxscan.Get(ctx, q, &agg, aggregateSQL, contentID); err != nil {
		return domain.UsageAggregate{}, postgres.MapError(err, "usage_aggregate", contentID)
	}

	return domain.UsageAggregate{
		GenerationCost:   agg.GenerationCost,
		VerificationCost: agg.VerificationCost,
		OtherCost:        agg.OtherCost,
		TotalCost:        agg.TotalCost,
		SuccessfulCalls:  agg.SuccessfulCalls,
		FailedCalls:      agg.FailedCalls,
		InputTokens:      agg.InputTokens,
		OutputTokens:     agg.OutputTokens,
	}, nil
}

// ---------------------------------------------------------------------------
// Mapping
// ---------------------------------------------------------------------------

func toDomain(r row) domain.UsageRecord {
	return domain.UsageRecord{
		ID:           r.ID,
		ContentID:    r.ContentID,
		Provider:     r.Provider,
		Model:        r.Model,
		AgentName:    r.AgentName,
		Purpose:      domain.UsagePurpose(r.Purpose),
		InputTokens:  r.InputTokens,
		OutputTokens: r.OutputTokens,
		InputCost:    r.InputCost,
		OutputCost:   r.OutputCost,
		TotalCost:    r.TotalCost,
		DurationMs:   r.DurationMs,
		Success:      r.Success,
		ErrorMessage: r.ErrorMessage,
		CreatedAt:    r.CreatedAt,
	}
}
