package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/internal/service/validation"
)

// SubmitResult reports how far a submission got.
type SubmitResult struct {
	Item       domain.ContentItem       `json:"item"`
	Links      domain.LinkSummary       `json:"links"`
	LinkIssues []string                 `json:"link_issues"`
	Validation *domain.ValidationResult `json:"validation,omitempty"`
}

// Submit drives an item from draft towards pending_review:
// transform links, validate, then either start the SLA clock or return the
// item to draft with its validation errors attached. A submission interrupted
// after transform or validation resumes from the stored status.
//
// A failed validation is not an error; the result carries the verdict and the
// item is back in draft. Transform and validation infrastructure failures leave
// the item in its prior status and are returned as errors.
func (s *Service) Submit(ctx context.Context, id uuid.UUID) (SubmitResult, error) {
	item, err := s.content.GetByID(ctx, id)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("get content: %w", err)
	}

	var res SubmitResult
	switch item.Status {
	case domain.ContentStatusDraft, domain.ContentStatusTransformed, domain.ContentStatusValidated:
	default:
		return SubmitResult{}, domain.NewTransitionError(item.Status, "submit")
	}

	if item.Status == domain.ContentStatusDraft {
		if item, err = s.transform(ctx, item, &res); err != nil {
			return SubmitResult{}, err
		}
	} else {
		res.Links = item.LinkSummary
	}

	if item.Status == domain.ContentStatusTransformed {
		if item, err = s.validate(ctx, item, &res); err != nil {
			return SubmitResult{}, err
		}
	}

	item, err = s.route(ctx, item)
	if err != nil {
		return SubmitResult{}, err
	}

	res.Item = item
	return res, nil
}

// transform runs the link transformer and moves draft → transformed.
func (s *Service) transform(ctx context.Context, item domain.ContentItem, res *SubmitResult) (domain.ContentItem, error) {
	out, err := s.transformer.Transform(ctx, item.ID, item.Body)
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("transform content %s: %w: %w", item.ID, domain.ErrTransformFailed, err)
	}
	res.LinkIssues = out.Issues
	if !out.Success {
		s.log.WarnContext(ctx, "link transform failed",
			slog.String("content_id", item.ID.String()),
			slog.Any("issues", out.Issues))
		return domain.ContentItem{}, fmt.Errorf("transform content %s: %w: %s",
			item.ID, domain.ErrTransformFailed, strings.Join(out.Issues, "; "))
	}
	res.Links = out.Summary

	summary := out.Summary
	next, err := s.content.Transition(ctx, item.ID, domain.StatusChange{
		From:           domain.ContentStatusDraft,
		To:             domain.ContentStatusTransformed,
		Body:           &out.Content,
		LinkSummary:    &summary,
		ClearRejection: true,
	})
	if err != nil {
		return domain.ContentItem{}, conflictOrErr("transform", item.ID, err)
	}

	s.log.InfoContext(ctx, "content transformed",
		slog.String("content_id", item.ID.String()),
		slog.Int("links", summary.Total),
		slog.Int("issues", len(out.Issues)))
	return next, nil
}

// validate runs the validation gate and moves transformed → validated.
func (s *Service) validate(ctx context.Context, item domain.ContentItem, res *SubmitResult) (domain.ContentItem, error) {
	verdict, err := s.gate.Validate(ctx, validation.Input{
		ContentID:       item.ID,
		HTML:            item.Body,
		Title:           item.Title,
		MetaDescription: item.MetaDescription,
	})
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("validate content %s: %w", item.ID, err)
	}
	res.Validation = &verdict

	status := domain.ValidationStatusInvalid
	if verdict.Passed {
		status = domain.ValidationStatusValid
	}
	next, err := s.content.Transition(ctx, item.ID, domain.StatusChange{
		From:             domain.ContentStatusTransformed,
		To:               domain.ContentStatusValidated,
		ValidationStatus: &status,
		ValidationErrors: verdict.Errors,
	})
	if err != nil {
		return domain.ContentItem{}, conflictOrErr("validate", item.ID, err)
	}
	return next, nil
}

// route moves a validated item to pending_review or back to draft.
func (s *Service) route(ctx context.Context, item domain.ContentItem) (domain.ContentItem, error) {
	if item.ValidationStatus != domain.ValidationStatusValid {
		next, err := s.content.Transition(ctx, item.ID, domain.StatusChange{
			From: domain.ContentStatusValidated,
			To:   domain.ContentStatusDraft,
		})
		if err != nil {
			return domain.ContentItem{}, conflictOrErr("return to draft", item.ID, err)
		}
		s.log.InfoContext(ctx, "content failed validation",
			slog.String("content_id", item.ID.String()),
			slog.Int("errors", len(next.ValidationErrors)))
		return next, nil
	}

	now := s.now()
	autoApproveAt := now.Add(s.cfg.SLAWindow)
	next, err := s.content.Transition(ctx, item.ID, domain.StatusChange{
		From:          domain.ContentStatusValidated,
		To:            domain.ContentStatusPendingReview,
		PendingSince:  &now,
		AutoApproveAt: &autoApproveAt,
	})
	if err != nil {
		return domain.ContentItem{}, conflictOrErr("queue for review", item.ID, err)
	}
	s.log.InfoContext(ctx, "content pending review",
		slog.String("content_id", item.ID.String()),
		slog.Time("auto_approve_at", autoApproveAt))
	return next, nil
}
