// Package content implements the ContentItem repository using PostgreSQL.
// Every status change is a single conditional UPDATE keyed on the expected
// prior status; a write that matches no row reports domain.ErrConflict.
package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	postgres "github.com/heartmarshall/contentflow-backend/internal/adapter/postgres"
	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

const table = "content_items"

var columns = []string{
	"id", "title", "body", "meta_title", "meta_description", "keywords",
	"status", "pending_since", "auto_approve_at", "approved_at", "approval_method",
	"published_at", "rejection_reason", "validation_status", "validation_errors", "link_summary",
	"generation_cost", "verification_cost", "total_cost",
	"remote_post_id", "remote_url", "version", "created_at", "updated_at",
}

var returning = "RETURNING id, title, body, meta_title, meta_description, keywords, " +
	"status, pending_since, auto_approve_at, approved_at, approval_method, " +
	"published_at, rejection_reason, validation_status, validation_errors, link_summary, " +
	"generation_cost, verification_cost, total_cost, " +
	"remote_post_id, remote_url, version, created_at, updated_at"

// Repo provides content item persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new content repository. db is usually a *pgxpool.Pool.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// row mirrors the content_items table for scanning.
type row struct {
	ID               uuid.UUID                `db:"id"`
	Title            string                   `db:"title"`
	Body             string                   `db:"body"`
	MetaTitle        string                   `db:"meta_title"`
	MetaDescription  string                   `db:"meta_description"`
	Keywords         []string                 `db:"keywords"`
	Status           string                   `db:"status"`
	PendingSince     *time.Time               `db:"pending_since"`
	AutoApproveAt    *time.Time               `db:"auto_approve_at"`
	ApprovedAt       *time.Time               `db:"approved_at"`
	ApprovalMethod   *string                  `db:"approval_method"`
	PublishedAt      *time.Time               `db:"published_at"`
	RejectionReason  *string                  `db:"rejection_reason"`
	ValidationStatus string                   `db:"validation_status"`
	ValidationErrors []domain.ValidationIssue `db:"validation_errors"`
	LinkSummary      domain.LinkSummary       `db:"link_summary"`
	GenerationCost   decimal.Decimal          `db:"generation_cost"`
	VerificationCost decimal.Decimal          `db:"verification_cost"`
	TotalCost        decimal.Decimal          `db:"total_cost"`
	RemotePostID     *string                  `db:"remote_post_id"`
	RemoteURL        *string                  `db:"remote_url"`
	Version          int                      `db:"version"`
	CreatedAt        time.Time                `db:"created_at"`
	UpdatedAt        time.Time                `db:"updated_at"`
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a content item. Returns domain.ErrNotFound if it does not exist.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.ContentItem, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var rw row
	err := postgres.Get(ctx, q, &rw, postgres.Builder().
		Select(columns...).From(table).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return domain.ContentItem{}, postgres.MapError(err, "content_item", id)
	}
	return toDomain(rw), nil
}

// FindByRemotePostID returns the item linked to a CMS post id.
func (r *Repo) FindByRemotePostID(ctx context.Context, remoteID string) (domain.ContentItem, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var rw row
	err := postgres.Get(ctx, q, &rw, postgres.Builder().
		Select(columns...).From(table).
		Where(sq.Eq{"remote_post_id": remoteID}))
	if err != nil {
		return domain.ContentItem{}, postgres.MapError(err, "content_item", uuid.Nil)
	}
	return toDomain(rw), nil
}

// List returns items matching the filter, newest first, and the total count.
func (r *Repo) List(ctx context.Context, filter domain.ContentFilter) ([]domain.ContentItem, int, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	where := sq.And{}
	if filter.Status != nil {
		where = append(where, sq.Eq{"status": string(*filter.Status)})
	}

	var total int
	countSQL, countArgs, err := postgres.Builder().
		Select("count(*)").From(table).Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count content_items: %w", err)
	}

	sel := postgres.Builder().
		Select(columns...).From(table).Where(where).
		OrderBy("created_at DESC", "id")
	if filter.Limit > 0 {
		sel = sel.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		sel = sel.Offset(uint64(filter.Offset))
	}

	var rows []row
	if err := postgres.Select(ctx, q, &rows, sel); err != nil {
		return nil, 0, fmt.Errorf("list content_items: %w", err)
	}

	return toDomainList(rows), total, nil
}

// ListPending returns up to limit items in pending_review, oldest first.
// A non-zero cutoff restricts the result to items pending since at or before it.
func (r *Repo) ListPending(ctx context.Context, cutoff time.Time, limit int) ([]domain.ContentItem, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sel := postgres.Builder().
		Select(columns...).From(table).
		Where(sq.Eq{"status": string(domain.ContentStatusPendingReview)}).
		OrderBy("pending_since", "id")
	if !cutoff.IsZero() {
		sel = sel.Where(sq.LtOrEq{"pending_since": cutoff})
	}
	if limit > 0 {
		sel = sel.Limit(uint64(limit))
	}

	var rows []row
	if err := postgres.Select(ctx, q, &rows, sel); err != nil {
		return nil, fmt.Errorf("list pending content_items: %w", err)
	}
	return toDomainList(rows), nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new draft and returns the stored row.
func (r *Repo) Create(ctx context.Context, item *domain.ContentItem) (domain.ContentItem, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	keywords := item.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	var rw row
	err := postgres.Get(ctx, q, &rw, postgres.Builder().
		Insert(table).
		Columns("id", "title", "body", "meta_title", "meta_description", "keywords", "status", "validation_status").
		Values(item.ID, item.Title, item.Body, item.MetaTitle, item.MetaDescription, keywords,
			string(domain.ContentStatusDraft), string(domain.ValidationStatusPending)).
		Suffix(returning))
	if err != nil {
		return domain.ContentItem{}, postgres.MapError(err, "content_item", item.ID)
	}
	return toDomain(rw), nil
}

// UpdateDraft changes editable fields of an item that is still a draft.
// Returns domain.ErrConflict if the item left draft in the meantime.
func (r *Repo) UpdateDraft(ctx context.Context, id uuid.UUID, upd domain.DraftUpdate) (domain.ContentItem, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	stmt := postgres.Builder().Update(table).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", sq.Expr("now()"))
	if upd.Title != nil {
		stmt = stmt.Set("title", *upd.Title)
	}
	if upd.Body != nil {
		stmt = stmt.Set("body", *upd.Body).
			Set("validation_status", string(domain.ValidationStatusPending)).
			Set("validation_errors", []domain.ValidationIssue{})
	}
	if upd.MetaTitle != nil {
		stmt = stmt.Set("meta_title", *upd.MetaTitle)
	}
	if upd.MetaDescription != nil {
		stmt = stmt.Set("meta_description", *upd.MetaDescription)
	}
	if upd.Keywords != nil {
		stmt = stmt.Set("keywords", upd.Keywords)
	}

	var rw row
	err := postgres.Get(ctx, q, &rw, stmt.
		Where(sq.Eq{"id": id, "status": string(domain.ContentStatusDraft)}).
		Suffix(returning))
	if err != nil {
		return domain.ContentItem{}, mapConditional(err, id)
	}
	return toDomain(rw), nil
}

// Transition applies a conditional status change. Only a row whose current
// status equals change.From is updated. Returns domain.ErrConflict when no
// row matched (missing item or lost race).
func (r *Repo) Transition(ctx context.Context, id uuid.UUID, change domain.StatusChange) (domain.ContentItem, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	stmt, err := buildTransition(id, change)
	if err != nil {
		return domain.ContentItem{}, err
	}

	var rw row
	if err := postgres.Get(ctx, q, &rw, stmt); err != nil {
		return domain.ContentItem{}, mapConditional(err, id)
	}
	return toDomain(rw), nil
}

func buildTransition(id uuid.UUID, c domain.StatusChange) (sq.UpdateBuilder, error) {
	if !c.To.IsValid() {
		return sq.UpdateBuilder{}, fmt.Errorf("transition to invalid status %q", c.To)
	}

	stmt := postgres.Builder().Update(table).
		Set("status", string(c.To)).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", sq.Expr("now()"))

	if c.To == domain.ContentStatusPendingReview {
		if c.PendingSince == nil || c.AutoApproveAt == nil {
			return sq.UpdateBuilder{}, errors.New("transition to pending_review requires pending_since and auto_approve_at")
		}
		stmt = stmt.Set("pending_since", *c.PendingSince).Set("auto_approve_at", *c.AutoApproveAt)
	} else {
		stmt = stmt.Set("pending_since", nil).Set("auto_approve_at", nil)
	}

	if c.To == domain.ContentStatusPublished {
		if c.PublishedAt == nil {
			return sq.UpdateBuilder{}, errors.New("transition to published requires published_at")
		}
		stmt = stmt.Set("published_at", *c.PublishedAt)
	} else {
		stmt = stmt.Set("published_at", nil)
	}

	if c.ApprovedAt != nil {
		stmt = stmt.Set("approved_at", *c.ApprovedAt)
	}
	if c.ApprovalMethod != nil {
		stmt = stmt.Set("approval_method", string(*c.ApprovalMethod))
	}
	switch {
	case c.RejectionReason != nil:
		stmt = stmt.Set("rejection_reason", *c.RejectionReason)
	case c.ClearRejection:
		stmt = stmt.Set("rejection_reason", nil)
	}
	if c.Body != nil {
		stmt = stmt.Set("body", *c.Body)
	}
	if c.LinkSummary != nil {
		stmt = stmt.Set("link_summary", *c.LinkSummary)
	}
	if c.ValidationStatus != nil {
		issues := c.ValidationErrors
		if issues == nil {
			issues = []domain.ValidationIssue{}
		}
		stmt = stmt.Set("validation_status", string(*c.ValidationStatus)).
			Set("validation_errors", issues)
	}
	if c.RemotePostID != nil {
		stmt = stmt.Set("remote_post_id", *c.RemotePostID)
	}
	if c.RemoteURL != nil {
		stmt = stmt.Set("remote_url", *c.RemoteURL)
	}

	where := sq.Eq{"id": id, "status": string(c.From)}
	if c.RequireValidation != nil {
		where["validation_status"] = string(*c.RequireValidation)
	}
	stmt = stmt.Where(where)
	if c.PendingBefore != nil {
		stmt = stmt.Where(sq.LtOrEq{"pending_since": *c.PendingBefore})
	}

	return stmt.Suffix(returning), nil
}

// LinkRemote records the CMS post linkage without touching the status.
func (r *Repo) LinkRemote(ctx context.Context, id uuid.UUID, remoteID, remoteURL string) (domain.ContentItem, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var rw row
	err := postgres.Get(ctx, q, &rw, postgres.Builder().Update(table).
		Set("remote_post_id", remoteID).
		Set("remote_url", remoteURL).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix(returning))
	if err != nil {
		return domain.ContentItem{}, postgres.MapError(err, "content_item", id)
	}
	return toDomain(rw), nil
}

// ClaimPublish marks an approved, unlinked item as being pushed to the CMS.
// A claim older than staleBefore is taken over. Returns domain.ErrConflict
// when the item is not approved, is already linked or is claimed.
func (r *Repo) ClaimPublish(ctx context.Context, id uuid.UUID, now, staleBefore time.Time) (domain.ContentItem, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var rw row
	if err := postgres.Get(ctx, q, &rw, claimPublishStmt(id, now, staleBefore)); err != nil {
		return domain.ContentItem{}, mapConditional(err, id)
	}
	return toDomain(rw), nil
}

func claimPublishStmt(id uuid.UUID, now, staleBefore time.Time) sq.UpdateBuilder {
	return postgres.Builder().Update(table).
		Set("publish_claimed_at", now).
		Where(sq.Eq{"id": id, "status": string(domain.ContentStatusApproved), "remote_post_id": nil}).
		Where(sq.Or{sq.Eq{"publish_claimed_at": nil}, sq.Lt{"publish_claimed_at": staleBefore}}).
		Suffix(returning)
}

// ReleasePublish drops the claim of an item whose push failed.
func (r *Repo) ReleasePublish(ctx context.Context, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.db)

	_, err := postgres.Exec(ctx, q, postgres.Builder().Update(table).
		Set("publish_claimed_at", nil).
		Where(sq.Eq{"id": id, "remote_post_id": nil}))
	if err != nil {
		return postgres.MapError(err, "content_item", id)
	}
	return nil
}

// LinkPublished stores the remote post created for a claimed item. Only an
// approved item without a link is updated; anything else is domain.ErrConflict.
func (r *Repo) LinkPublished(ctx context.Context, id uuid.UUID, remoteID, remoteURL string) (domain.ContentItem, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var rw row
	if err := postgres.Get(ctx, q, &rw, linkPublishedStmt(id, remoteID, remoteURL)); err != nil {
		return domain.ContentItem{}, mapConditional(err, id)
	}
	return toDomain(rw), nil
}

func linkPublishedStmt(id uuid.UUID, remoteID, remoteURL string) sq.UpdateBuilder {
	return postgres.Builder().Update(table).
		Set("remote_post_id", remoteID).
		Set("remote_url", remoteURL).
		Set("publish_claimed_at", nil).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id, "status": string(domain.ContentStatusApproved), "remote_post_id": nil}).
		Suffix(returning)
}

const recomputeCostsSQL = `
UPDATE content_items c
SET generation_cost   = agg.generation,
    verification_cost = agg.verification,
    total_cost        = agg.total,
    updated_at        = now()
FROM (
    SELECT
        COALESCE(sum(total_cost) FILTER (WHERE success AND purpose = 'generation'), 0)   AS generation,
        COALESCE(sum(total_cost) FILTER (WHERE success AND purpose = 'verification'), 0) AS verification,
        COALESCE(sum(total_cost) FILTER (WHERE success), 0)                              AS total
    FROM usage_records
    WHERE content_id = $1
) agg
WHERE c.id = $1`

// RecomputeCosts refreshes the cached cost columns from usage_records.
// Costs accumulate across rewrites because usage rows are never removed.
func (r *Repo) RecomputeCosts(ctx context.Context, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.db)

	if _, err := q.Exec(ctx, recomputeCostsSQL, id); err != nil {
		return postgres.MapError(err, "content_item", id)
	}
	return nil
}

// Delete removes an item. Returns domain.ErrNotFound if it does not exist.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.db)

	n, err := postgres.Exec(ctx, q, postgres.Builder().Delete(table).Where(sq.Eq{"id": id}))
	if err != nil {
		return postgres.MapError(err, "content_item", id)
	}
	if n == 0 {
		return fmt.Errorf("content_item %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Mapping
// ---------------------------------------------------------------------------

func toDomain(r row) domain.ContentItem {
	item := domain.ContentItem{
		ID:               r.ID,
		Title:            r.Title,
		Body:             r.Body,
		MetaTitle:        r.MetaTitle,
		MetaDescription:  r.MetaDescription,
		Keywords:         r.Keywords,
		Status:           domain.ContentStatus(r.Status),
		PendingSince:     r.PendingSince,
		AutoApproveAt:    r.AutoApproveAt,
		ApprovedAt:       r.ApprovedAt,
		PublishedAt:      r.PublishedAt,
		RejectionReason:  r.RejectionReason,
		ValidationStatus: domain.ValidationStatus(r.ValidationStatus),
		ValidationErrors: r.ValidationErrors,
		LinkSummary:      r.LinkSummary,
		GenerationCost:   r.GenerationCost,
		VerificationCost: r.VerificationCost,
		TotalCost:        r.TotalCost,
		RemotePostID:     r.RemotePostID,
		RemoteURL:        r.RemoteURL,
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.ApprovalMethod != nil {
		m := domain.ApprovalMethod(*r.ApprovalMethod)
		item.ApprovalMethod = &m
	}
	return item
}

func toDomainList(rows []row) []domain.ContentItem {
	items := make([]domain.ContentItem, len(rows))
	for i, r := range rows {
		items[i] = toDomain(r)
	}
	return items
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

// mapConditional maps a conditional write that matched no row to ErrConflict.
func mapConditional(err error, id uuid.UUID) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("content_item %s: %w", id, domain.ErrConflict)
	}
	return postgres.MapError(err, "content_item", id)
}
