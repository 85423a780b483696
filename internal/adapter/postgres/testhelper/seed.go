package testhelper

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedContent inserts a draft content item and returns it.
func SeedContent(t *testing.T, pool *pgxpool.Pool) domain.ContentItem {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	item := domain.ContentItem{
		ID:               uuid.New(),
		Title:            "Seeded article " + uniqueSuffix(),
		Body:             "<p>" + strings.Repeat("word ", 20) + "</p>",
		MetaTitle:        "Seeded meta title",
		MetaDescription:  "Seeded meta description",
		Keywords:         []string{"seed", "test"},
		Status:           domain.ContentStatusDraft,
		ValidationStatus: domain.ValidationStatusPending,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO content_items (id, title, body, meta_title, meta_description, keywords, status, validation_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.ID, item.Title, item.Body, item.MetaTitle, item.MetaDescription, item.Keywords,
		string(item.Status), string(item.ValidationStatus), item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedContent insert: %v", err)
	}

	return item
}

// SeedPendingContent inserts an item already waiting for review since pendingSince.
func SeedPendingContent(t *testing.T, pool *pgxpool.Pool, pendingSince time.Time, window time.Duration, vs domain.ValidationStatus) domain.ContentItem {
	t.Helper()
	ctx := context.Background()

	item := SeedContent(t, pool)
	pendingSince = pendingSince.UTC().Truncate(time.Microsecond)
	autoAt := pendingSince.Add(window)

	_, err := pool.Exec(ctx,
		`UPDATE content_items
		 SET status = 'pending_review', pending_since = $2, auto_approve_at = $3, validation_status = $4
		 WHERE id = $1`,
		item.ID, pendingSince, autoAt, string(vs),
	)
	if err != nil {
		t.Fatalf("testhelper: SeedPendingContent update: %v", err)
	}

	item.Status = domain.ContentStatusPendingReview
	item.PendingSince = &pendingSince
	item.AutoApproveAt = &autoAt
	item.ValidationStatus = vs
	return item
}

// SetStatus forces an item into the given status, bypassing the workflow.
// Lifecycle timestamps are adjusted so table constraints still hold.
func SetStatus(t *testing.T, pool *pgxpool.Pool, id uuid.UUID, status domain.ContentStatus) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`UPDATE content_items
		 SET status = $2,
		     pending_since = CASE WHEN $2::text = 'pending_review' THEN now() END,
		     auto_approve_at = NULL,
		     published_at = CASE WHEN $2::text = 'published' THEN now() END
		 WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		t.Fatalf("testhelper: SetStatus: %v", err)
	}
}
