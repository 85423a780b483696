// Package workflow owns the lifecycle of a content item:
//
//	draft → transformed → validated → pending_review → approved → published
//
// A failed validation and a reviewer rejection both return the item to draft.
// Every status change is a conditional write keyed on the expected prior
// status, so concurrent callers (reviewers, the SLA sweep, the publish
// webhook) never both win the same transition. Manual callers that lose a
// race get domain.ErrConflict; the SLA path treats a lost race as a no-op.
package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/internal/provider"
	"github.com/heartmarshall/contentflow-backend/internal/service/linkify"
	"github.com/heartmarshall/contentflow-backend/internal/service/validation"
)

//go:generate moq -out mocks_test.go -pkg workflow . contentRepo feedbackRepo validationLogRepo txManager validator publisher

type contentRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.ContentItem, error)
	FindByRemotePostID(ctx context.Context, remoteID string) (domain.ContentItem, error)
	List(ctx context.Context, filter domain.ContentFilter) ([]domain.ContentItem, int, error)
	Create(ctx context.Context, item *domain.ContentItem) (domain.ContentItem, error)
	UpdateDraft(ctx context.Context, id uuid.UUID, upd domain.DraftUpdate) (domain.ContentItem, error)
	Transition(ctx context.Context, id uuid.UUID, change domain.StatusChange) (domain.ContentItem, error)
	LinkRemote(ctx context.Context, id uuid.UUID, remoteID, remoteURL string) (domain.ContentItem, error)
	ClaimPublish(ctx context.Context, id uuid.UUID, now, staleBefore time.Time) (domain.ContentItem, error)
	ReleasePublish(ctx context.Context, id uuid.UUID) error
	LinkPublished(ctx context.Context, id uuid.UUID, remoteID, remoteURL string) (domain.ContentItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type feedbackRepo interface {
	Create(ctx context.Context, fb *domain.Feedback) (domain.Feedback, error)
	ListByContent(ctx context.Context, contentID uuid.UUID) ([]domain.Feedback, error)
}

type validationLogRepo interface {
	ListByContent(ctx context.Context, contentID uuid.UUID, limit int) ([]domain.ValidationLog, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type validator interface {
	Validate(ctx context.Context, in validation.Input) (domain.ValidationResult, error)
}

type publisher interface {
	Publish(ctx context.Context, req provider.PublishRequest) (provider.PublishResult, error)
}

// Config controls workflow timing.
type Config struct {
	SLAWindow time.Duration
	// PublishClaimTTL is how long a publish claim blocks other publishers.
	// A claim older than this is treated as abandoned by a crashed caller.
	PublishClaimTTL time.Duration
}

// Service implements the workflow state machine.
type Service struct {
	log         *slog.Logger
	content     contentRepo
	feedback    feedbackRepo
	validations validationLogRepo
	tx          txManager
	transformer linkify.Transformer
	gate        validator
	publisher   publisher
	cfg         Config
	now         func() time.Time
}

// NewService creates a new workflow service.
func NewService(
	log *slog.Logger,
	content contentRepo,
	feedback feedbackRepo,
	validations validationLogRepo,
	tx txManager,
	transformer linkify.Transformer,
	gate validator,
	publisher publisher,
	cfg Config,
) *Service {
	if cfg.SLAWindow <= 0 {
		cfg.SLAWindow = 5 * 24 * time.Hour
	}
	if cfg.PublishClaimTTL <= 0 {
		cfg.PublishClaimTTL = 10 * time.Minute
	}
	return &Service{
		log:         log.With("service", "workflow"),
		content:     content,
		feedback:    feedback,
		validations: validations,
		tx:          tx,
		transformer: transformer,
		gate:        gate,
		publisher:   publisher,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SLAWindow returns the configured review window.
func (s *Service) SLAWindow() time.Duration {
	return s.cfg.SLAWindow
}

// transitionWithFeedback applies a conditional status change and appends the
// feedback row in the same transaction.
func (s *Service) transitionWithFeedback(ctx context.Context, id uuid.UUID, change domain.StatusChange, fb *domain.Feedback) (domain.ContentItem, error) {
	var item domain.ContentItem
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		item, err = s.content.Transition(ctx, id, change)
		if err != nil {
			return err
		}
		if fb == nil {
			return nil
		}
		fb.ContentID = id
		_, err = s.feedback.Create(ctx, fb)
		return err
	})
	if err != nil {
		return domain.ContentItem{}, err
	}
	return item, nil
}

func ptr[T any](v T) *T {
	return &v
}
