package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/internal/provider"
)

// Publish pushes an approved item to the CMS and marks it published.
//
// The push is guarded by a claim on the row, so concurrent callers (a
// reviewer and the SLA auto-publish) never both create a remote post. The
// remote link is stored before the status flips; a retry after a failed
// status write finds the link and skips the push. An adapter failure
// releases the claim and leaves the item approved.
func (s *Service) Publish(ctx context.Context, id uuid.UUID) (domain.ContentItem, error) {
	item, err := s.content.GetByID(ctx, id)
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("get content: %w", err)
	}
	if item.Status != domain.ContentStatusApproved {
		return domain.ContentItem{}, domain.NewTransitionError(item.Status, "publish")
	}

	if deref(item.RemotePostID) == "" {
		if item, err = s.pushToCMS(ctx, id); err != nil {
			return domain.ContentItem{}, err
		}
	}
	remoteID, remoteURL := deref(item.RemotePostID), deref(item.RemoteURL)

	now := s.now()
	published, err := s.content.Transition(ctx, id, domain.StatusChange{
		From:         domain.ContentStatusApproved,
		To:           domain.ContentStatusPublished,
		PublishedAt:  &now,
		RemotePostID: &remoteID,
		RemoteURL:    &remoteURL,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "published content not marked",
			slog.String("content_id", id.String()),
			slog.String("remote_post_id", remoteID),
			slog.String("error", err.Error()))
		return domain.ContentItem{}, conflictOrErr("mark published", id, err)
	}

	s.log.InfoContext(ctx, "content published",
		slog.String("content_id", id.String()),
		slog.String("remote_post_id", remoteID),
		slog.String("remote_url", remoteURL))
	return published, nil
}

// pushToCMS claims the item, creates the remote post and links it. The
// returned item carries the remote id. When another caller holds the claim
// or already linked a post, the push is skipped.
func (s *Service) pushToCMS(ctx context.Context, id uuid.UUID) (domain.ContentItem, error) {
	now := s.now()
	item, err := s.content.ClaimPublish(ctx, id, now, now.Add(-s.cfg.PublishClaimTTL))
	if errors.Is(err, domain.ErrConflict) {
		return s.afterLostClaim(ctx, id)
	}
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("claim publish: %w", err)
	}

	res, err := s.publisher.Publish(ctx, provider.PublishRequest{
		Title:           item.Title,
		Body:            item.Body,
		MetaTitle:       item.MetaTitle,
		MetaDescription: item.MetaDescription,
		Keywords:        item.Keywords,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "publish failed",
			slog.String("content_id", id.String()),
			slog.String("error", err.Error()))
		if relErr := s.content.ReleasePublish(context.WithoutCancel(ctx), id); relErr != nil {
			s.log.ErrorContext(ctx, "release publish claim failed",
				slog.String("content_id", id.String()),
				slog.String("error", relErr.Error()))
		}
		return domain.ContentItem{}, fmt.Errorf("publish content %s: %w: %w", id, domain.ErrPublishFailed, err)
	}

	linked, err := s.content.LinkPublished(context.WithoutCancel(ctx), id, res.RemoteID, res.URL)
	if err != nil {
		// The post exists remotely but is not linked; the claim stays held
		// until it goes stale so nothing re-pushes in the meantime.
		s.log.ErrorContext(ctx, "remote post not linked",
			slog.String("content_id", id.String()),
			slog.String("remote_post_id", res.RemoteID),
			slog.String("remote_url", res.URL),
			slog.String("error", err.Error()))
		return domain.ContentItem{}, fmt.Errorf("link remote post for %s: %w", id, err)
	}
	return linked, nil
}

// afterLostClaim decides what a caller that could not claim the item does:
// continue with a link another caller stored, or report the conflict.
func (s *Service) afterLostClaim(ctx context.Context, id uuid.UUID) (domain.ContentItem, error) {
	item, err := s.content.GetByID(ctx, id)
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("get content: %w", err)
	}
	switch {
	case item.Status != domain.ContentStatusApproved:
		return domain.ContentItem{}, fmt.Errorf("content_item %s is %s: %w", id, item.Status, domain.ErrConflict)
	case deref(item.RemotePostID) != "":
		return item, nil
	default:
		s.log.InfoContext(ctx, "publish already in progress", slog.String("content_id", id.String()))
		return domain.ContentItem{}, fmt.Errorf("content_item %s publish in progress: %w", id, domain.ErrConflict)
	}
}

// ConfirmResult is the outcome of a publish confirmation.
type ConfirmResult struct {
	Matched   bool       `json:"matched"`
	ContentID *uuid.UUID `json:"content_id,omitempty"`
	Status    string     `json:"status,omitempty"`
	Warning   string     `json:"warning,omitempty"`
}

// ConfirmPublication records a CMS callback. The item is matched by
// ContentQueueID when present, otherwise by remote post id. An unmatched
// callback is not an error because the post is already live remotely.
func (s *Service) ConfirmPublication(ctx context.Context, in ConfirmInput) (ConfirmResult, error) {
	if err := in.Validate(); err != nil {
		return ConfirmResult{}, err
	}
	postID := strings.TrimSpace(in.PostID)
	postURL := strings.TrimSpace(in.PostURL)

	item, err := s.matchConfirmation(ctx, in.ContentQueueID, postID)
	if errors.Is(err, domain.ErrNotFound) {
		s.log.WarnContext(ctx, "publish confirmation unmatched",
			slog.String("post_id", postID),
			slog.String("post_url", postURL))
		return ConfirmResult{Warning: "no content item linked to post " + postID}, nil
	}
	if err != nil {
		return ConfirmResult{}, fmt.Errorf("match confirmation: %w", err)
	}

	id := item.ID
	res := ConfirmResult{Matched: true, ContentID: &id}

	switch {
	case item.Status == domain.ContentStatusApproved && in.isLive():
		now := s.now()
		item, err = s.content.Transition(ctx, item.ID, domain.StatusChange{
			From:         domain.ContentStatusApproved,
			To:           domain.ContentStatusPublished,
			PublishedAt:  &now,
			RemotePostID: &postID,
			RemoteURL:    &postURL,
		})
		if errors.Is(err, domain.ErrConflict) {
			// Publish raced us; whatever it stored wins.
			item, err = s.content.GetByID(ctx, id)
		}
		if err != nil {
			return ConfirmResult{}, fmt.Errorf("confirm publication: %w", err)
		}
	case deref(item.RemotePostID) != postID || deref(item.RemoteURL) != postURL:
		item, err = s.content.LinkRemote(ctx, item.ID, postID, postURL)
		if err != nil {
			return ConfirmResult{}, fmt.Errorf("link remote post: %w", err)
		}
	}

	res.Status = string(item.Status)
	if item.Status != domain.ContentStatusPublished {
		res.Warning = fmt.Sprintf("content is %s, remote status %q", item.Status, in.Status)
	}

	s.log.InfoContext(ctx, "publish confirmed",
		slog.String("content_id", item.ID.String()),
		slog.String("post_id", postID),
		slog.String("status", res.Status))
	return res, nil
}

func (s *Service) matchConfirmation(ctx context.Context, contentID *uuid.UUID, postID string) (domain.ContentItem, error) {
	if contentID != nil {
		item, err := s.content.GetByID(ctx, *contentID)
		if err == nil || !errors.Is(err, domain.ErrNotFound) {
			return item, err
		}
	}
	return s.content.FindByRemotePostID(ctx, postID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
