package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/internal/service/sla"
)

const defaultListLimit = 50

// ---------------------------------------------------------------------------
// Draft operations
// ---------------------------------------------------------------------------

// CreateDraft stores a new item in draft.
func (s *Service) CreateDraft(ctx context.Context, in CreateInput) (domain.ContentItem, error) {
	if err := in.Validate(); err != nil {
		return domain.ContentItem{}, err
	}

	item, err := s.content.Create(ctx, &domain.ContentItem{
		ID:              uuid.New(),
		Title:           strings.TrimSpace(in.Title),
		Body:            in.Body,
		MetaTitle:       strings.TrimSpace(in.MetaTitle),
		MetaDescription: strings.TrimSpace(in.MetaDescription),
		Keywords:        trimKeywords(in.Keywords),
	})
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("create content: %w", err)
	}

	s.log.InfoContext(ctx, "content created", slog.String("content_id", item.ID.String()))
	return item, nil
}

// UpdateDraft edits a draft. Editing the body resets its validation status.
func (s *Service) UpdateDraft(ctx context.Context, id uuid.UUID, in UpdateInput) (domain.ContentItem, error) {
	if err := in.Validate(); err != nil {
		return domain.ContentItem{}, err
	}

	current, err := s.content.GetByID(ctx, id)
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("get content: %w", err)
	}
	if !current.Status.IsEditable() {
		return domain.ContentItem{}, domain.NewTransitionError(current.Status, "edit")
	}

	upd := domain.DraftUpdate{
		Title:           trimPtr(in.Title),
		Body:            in.Body,
		MetaTitle:       trimPtr(in.MetaTitle),
		MetaDescription: trimPtr(in.MetaDescription),
	}
	if in.Keywords != nil {
		upd.Keywords = trimKeywords(in.Keywords)
	}

	item, err := s.content.UpdateDraft(ctx, id, upd)
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("update draft: %w", err)
	}
	return item, nil
}

// Delete removes an item regardless of status.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.content.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	s.log.InfoContext(ctx, "content deleted", slog.String("content_id", id.String()))
	return nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Get returns one item.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.ContentItem, error) {
	item, err := s.content.GetByID(ctx, id)
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("get content: %w", err)
	}
	return item, nil
}

// List returns a page of items and the total count.
func (s *Service) List(ctx context.Context, in ListInput) ([]domain.ContentItem, int, error) {
	if err := in.Validate(); err != nil {
		return nil, 0, err
	}
	limit := in.Limit
	if limit == 0 {
		limit = defaultListLimit
	}

	items, total, err := s.content.List(ctx, domain.ContentFilter{Status: in.Status, Limit: limit, Offset: in.Offset})
	if err != nil {
		return nil, 0, fmt.Errorf("list content: %w", err)
	}
	return items, total, nil
}

// ListFeedback returns the reviewer history of an item, oldest first.
func (s *Service) ListFeedback(ctx context.Context, id uuid.UUID) ([]domain.Feedback, error) {
	if _, err := s.content.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	fbs, err := s.feedback.ListByContent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return fbs, nil
}

// ListValidations returns the validation history of an item, newest first.
// The first entry is the authoritative current state.
func (s *Service) ListValidations(ctx context.Context, id uuid.UUID, limit int) ([]domain.ValidationLog, error) {
	if limit < 0 || limit > maxListLimit {
		return nil, domain.NewValidationError("limit", "must be between 0 and 200")
	}
	if limit == 0 {
		limit = defaultListLimit
	}
	if _, err := s.content.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	logs, err := s.validations.ListByContent(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list validations: %w", err)
	}
	return logs, nil
}

// SLA returns the review deadline view of a pending item.
func (s *Service) SLA(ctx context.Context, id uuid.UUID) (domain.SLAStatus, error) {
	item, err := s.content.GetByID(ctx, id)
	if err != nil {
		return domain.SLAStatus{}, fmt.Errorf("get content: %w", err)
	}
	if item.Status != domain.ContentStatusPendingReview || item.PendingSince == nil {
		return domain.SLAStatus{}, domain.NewTransitionError(item.Status, "compute sla for")
	}

	st := sla.Compute(*item.PendingSince, s.now(), s.cfg.SLAWindow)
	st.ContentID = item.ID
	return st, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// conflictOrErr turns a lost conditional write into a caller-facing error.
func conflictOrErr(action string, id uuid.UUID, err error) error {
	if errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("%s content %s: status changed concurrently: %w", action, id, domain.ErrConflict)
	}
	return fmt.Errorf("%s content %s: %w", action, id, err)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func trimKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		out = append(out, strings.TrimSpace(k))
	}
	return out
}
