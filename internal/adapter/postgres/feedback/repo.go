// Package feedback implements the reviewer Feedback repository.
package feedback

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/contentflow-backend/internal/adapter/postgres"
	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

const table = "feedback"

var columns = []string{"id", "content_id", "type", "method", "actor", "message", "created_at"}

// Repo provides feedback persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new feedback repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

type row struct {
	ID        uuid.UUID `db:"id"`
	ContentID uuid.UUID `db:"content_id"`
	Type      string    `db:"type"`
	Method    *string   `db:"method"`
	Actor     string    `db:"actor"`
	Message   *string   `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}

// Create appends a feedback entry. Returns domain.ErrNotFound if the item does not exist.
func (r *Repo) Create(ctx context.Context, fb *domain.Feedback) (domain.Feedback, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	out := *fb
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}

	var method *string
	if out.Method != nil {
		m := string(*out.Method)
		method = &m
	}

	_, err := postgres.Exec(ctx, q, postgres.Builder().
		Insert(table).Columns(columns...).
		Values(out.ID, out.ContentID, string(out.Type), method, out.Actor, out.Message, out.CreatedAt))
	if err != nil {
		return domain.Feedback{}, postgres.MapError(err, "feedback", out.ContentID)
	}
	return out, nil
}

// ListByContent returns the feedback history of an item, oldest first.
func (r *Repo) ListByContent(ctx context.Context, contentID uuid.UUID) ([]domain.Feedback, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var rows []row
	err := postgres.Select(ctx, q, &rows, postgres.Builder().
		Select(columns...).From(table).
		Where(sq.Eq{"content_id": contentID}).
		OrderBy("created_at", "id"))
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}

	out := make([]domain.Feedback, len(rows))
	for i, rw := range rows {
		out[i] = toDomain(rw)
	}
	return out, nil
}

// CountByType returns how many entries of the given type an item has.
func (r *Repo) CountByType(ctx context.Context, contentID uuid.UUID, typ domain.FeedbackType) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	query, args, err := postgres.Builder().
		Select("count(*)").From(table).
		Where(sq.Eq{"content_id": contentID, "type": string(typ)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var n int
	if err := q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return n, nil
}

func toDomain(r row) domain.Feedback {
	fb := domain.Feedback{
		ID:        r.ID,
		ContentID: r.ContentID,
		Type:      domain.FeedbackType(r.Type),
		Actor:     r.Actor,
		Message:   r.Message,
		CreatedAt: r.CreatedAt,
	}
	if r.Method != nil {
		m := domain.ApprovalMethod(*r.Method)
		fb.Method = &m
	}
	return fb
}
