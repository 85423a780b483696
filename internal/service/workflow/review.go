package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/pkg/ctxutil"
)

// SLAActor is the feedback actor recorded for automatic approvals.
const SLAActor = "sla-scheduler"

// ---------------------------------------------------------------------------
// Manual review
// ---------------------------------------------------------------------------

// Approve moves a pending item to approved and records Feedback(approve).
func (s *Service) Approve(ctx context.Context, id uuid.UUID, in ReviewInput) (domain.ContentItem, error) {
	if err := in.validate(false, "message"); err != nil {
		return domain.ContentItem{}, err
	}
	if err := s.expectStatus(ctx, id, "approve", domain.ContentStatusPendingReview); err != nil {
		return domain.ContentItem{}, err
	}

	now := s.now()
	method := domain.ApprovalMethodManual
	actor := ctxutil.ActorOrSystem(ctx)

	item, err := s.transitionWithFeedback(ctx, id, domain.StatusChange{
		From:           domain.ContentStatusPendingReview,
		To:             domain.ContentStatusApproved,
		ApprovedAt:     &now,
		ApprovalMethod: &method,
	}, &domain.Feedback{
		ID:      uuid.New(),
		Type:    domain.FeedbackTypeApprove,
		Method:  &method,
		Actor:   actor,
		Message: in.message(),
	})
	if err != nil {
		return domain.ContentItem{}, conflictOrErr("approve", id, err)
	}

	s.log.InfoContext(ctx, "content approved",
		slog.String("content_id", id.String()),
		slog.String("actor", actor))
	return item, nil
}

// Reject returns a pending item to draft with a reason and records Feedback(reject).
func (s *Service) Reject(ctx context.Context, id uuid.UUID, in ReviewInput) (domain.ContentItem, error) {
	if err := in.validate(true, "reason"); err != nil {
		return domain.ContentItem{}, err
	}
	if err := s.expectStatus(ctx, id, "reject", domain.ContentStatusPendingReview); err != nil {
		return domain.ContentItem{}, err
	}

	reason := in.message()
	actor := ctxutil.ActorOrSystem(ctx)

	item, err := s.transitionWithFeedback(ctx, id, domain.StatusChange{
		From:            domain.ContentStatusPendingReview,
		To:              domain.ContentStatusDraft,
		RejectionReason: reason,
	}, &domain.Feedback{
		ID:      uuid.New(),
		Type:    domain.FeedbackTypeReject,
		Actor:   actor,
		Message: reason,
	})
	if err != nil {
		return domain.ContentItem{}, conflictOrErr("reject", id, err)
	}

	s.log.InfoContext(ctx, "content rejected",
		slog.String("content_id", id.String()),
		slog.String("actor", actor))
	return item, nil
}

// RequestRewrite sends a pending or rejected item back to draft with rewrite
// instructions for the regeneration step. Accumulated costs are kept.
func (s *Service) RequestRewrite(ctx context.Context, id uuid.UUID, in ReviewInput) (domain.ContentItem, error) {
	if err := in.validate(true, "instructions"); err != nil {
		return domain.ContentItem{}, err
	}

	current, err := s.content.GetByID(ctx, id)
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("get content: %w", err)
	}
	if current.Status != domain.ContentStatusPendingReview && !current.IsRejected() {
		return domain.ContentItem{}, domain.NewTransitionError(current.Status, "request rewrite for")
	}

	instructions := in.message()
	actor := ctxutil.ActorOrSystem(ctx)

	change := domain.StatusChange{From: current.Status, To: domain.ContentStatusDraft}
	if current.Status == domain.ContentStatusPendingReview {
		change.RejectionReason = ptr("rewrite requested")
	}

	item, err := s.transitionWithFeedback(ctx, id, change, &domain.Feedback{
		ID:      uuid.New(),
		Type:    domain.FeedbackTypeRewrite,
		Actor:   actor,
		Message: instructions,
	})
	if err != nil {
		return domain.ContentItem{}, conflictOrErr("request rewrite for", id, err)
	}

	s.log.InfoContext(ctx, "content rewrite requested",
		slog.String("content_id", id.String()),
		slog.String("from", string(current.Status)),
		slog.String("actor", actor))
	return item, nil
}

// AddComment appends a comment in any status.
func (s *Service) AddComment(ctx context.Context, id uuid.UUID, in ReviewInput) (domain.Feedback, error) {
	if err := in.validate(true, "message"); err != nil {
		return domain.Feedback{}, err
	}

	fb, err := s.feedback.Create(ctx, &domain.Feedback{
		ID:        uuid.New(),
		ContentID: id,
		Type:      domain.FeedbackTypeComment,
		Actor:     ctxutil.ActorOrSystem(ctx),
		Message:   in.message(),
	})
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("add comment: %w", err)
	}
	return fb, nil
}

// ---------------------------------------------------------------------------
// Automatic approval
// ---------------------------------------------------------------------------

// AutoApprove approves a pending item whose SLA window has elapsed. The write
// only applies while the item is still pending review, has been pending since
// at or before cutoff and, under AutoApproveRequireValid, passed validation.
// A lost race or an unmet precondition returns (false, nil).
func (s *Service) AutoApprove(ctx context.Context, id uuid.UUID, cutoff time.Time, policy domain.AutoApprovePolicy) (bool, error) {
	now := s.now()
	method := domain.ApprovalMethodAuto

	change := domain.StatusChange{
		From:           domain.ContentStatusPendingReview,
		To:             domain.ContentStatusApproved,
		PendingBefore:  &cutoff,
		ApprovedAt:     &now,
		ApprovalMethod: &method,
	}
	if policy == domain.AutoApproveRequireValid {
		change.RequireValidation = ptr(domain.ValidationStatusValid)
	}

	_, err := s.transitionWithFeedback(ctx, id, change, &domain.Feedback{
		ID:      uuid.New(),
		Type:    domain.FeedbackTypeApprove,
		Method:  &method,
		Actor:   SLAActor,
		Message: ptr("approved automatically after the review window elapsed"),
	})
	if errors.Is(err, domain.ErrConflict) {
		s.log.DebugContext(ctx, "auto-approve skipped", slog.String("content_id", id.String()))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("auto-approve content %s: %w", id, err)
	}

	s.log.InfoContext(ctx, "content auto-approved",
		slog.String("content_id", id.String()),
		slog.String("policy", string(policy)))
	return true, nil
}

// expectStatus returns a TransitionError when the stored status differs.
// The subsequent conditional write still guards against concurrent changes.
func (s *Service) expectStatus(ctx context.Context, id uuid.UUID, action string, want domain.ContentStatus) error {
	item, err := s.content.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get content: %w", err)
	}
	if item.Status != want {
		return domain.NewTransitionError(item.Status, action)
	}
	return nil
}
