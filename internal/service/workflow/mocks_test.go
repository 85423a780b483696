package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/internal/provider"
	"github.com/heartmarshall/contentflow-backend/internal/service/linkify"
	"github.com/heartmarshall/contentflow-backend/internal/service/validation"
)

var (
	_ contentRepo         = &contentRepoMock{}
	_ feedbackRepo        = &feedbackRepoMock{}
	_ validationLogRepo   = &validationLogRepoMock{}
	_ txManager           = &txManagerMock{}
	_ validator           = &validatorMock{}
	_ publisher           = &publisherMock{}
	_ linkify.Transformer = &transformerMock{}
)

// ---------------------------------------------------------------------------
// contentRepoMock
// ---------------------------------------------------------------------------

type contentRepoMock struct {
	GetByIDFunc            func(ctx context.Context, id uuid.UUID) (domain.ContentItem, error)
	FindByRemotePostIDFunc func(ctx context.Context, remoteID string) (domain.ContentItem, error)
	ListFunc               func(ctx context.Context, filter domain.ContentFilter) ([]domain.ContentItem, int, error)
	CreateFunc             func(ctx context.Context, item *domain.ContentItem) (domain.ContentItem, error)
	UpdateDraftFunc        func(ctx context.Context, id uuid.UUID, upd domain.DraftUpdate) (domain.ContentItem, error)
	TransitionFunc         func(ctx context.Context, id uuid.UUID, change domain.StatusChange) (domain.ContentItem, error)
	LinkRemoteFunc         func(ctx context.Context, id uuid.UUID, remoteID, remoteURL string) (domain.ContentItem, error)
	ClaimPublishFunc       func(ctx context.Context, id uuid.UUID, now, staleBefore time.Time) (domain.ContentItem, error)
	ReleasePublishFunc     func(ctx context.Context, id uuid.UUID) error
	LinkPublishedFunc      func(ctx context.Context, id uuid.UUID, remoteID, remoteURL string) (domain.ContentItem, error)
	DeleteFunc             func(ctx context.Context, id uuid.UUID) error

	mu          sync.Mutex
	transitions []domain.StatusChange
}

func (m *contentRepoMock) GetByID(ctx context.Context, id uuid.UUID) (domain.ContentItem, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *contentRepoMock) FindByRemotePostID(ctx context.Context, remoteID string) (domain.ContentItem, error) {
	return m.FindByRemotePostIDFunc(ctx, remoteID)
}

func (m *contentRepoMock) List(ctx context.Context, filter domain.ContentFilter) ([]domain.ContentItem, int, error) {
	return m.ListFunc(ctx, filter)
}

func (m *contentRepoMock) Create(ctx context.Context, item *domain.ContentItem) (domain.ContentItem, error) {
	return m.CreateFunc(ctx, item)
}

func (m *contentRepoMock) UpdateDraft(ctx context.Context, id uuid.UUID, upd domain.DraftUpdate) (domain.ContentItem, error) {
	return m.UpdateDraftFunc(ctx, id, upd)
}

func (m *contentRepoMock) Transition(ctx context.Context, id uuid.UUID, change domain.StatusChange) (domain.ContentItem, error) {
	m.mu.Lock()
	m.transitions = append(m.transitions, change)
	m.mu.Unlock()
	return m.TransitionFunc(ctx, id, change)
}

func (m *contentRepoMock) LinkRemote(ctx context.Context, id uuid.UUID, remoteID, remoteURL string) (domain.ContentItem, error) {
	return m.LinkRemoteFunc(ctx, id, remoteID, remoteURL)
}

func (m *contentRepoMock) ClaimPublish(ctx context.Context, id uuid.UUID, now, staleBefore time.Time) (domain.ContentItem, error) {
	return m.ClaimPublishFunc(ctx, id, now, staleBefore)
}

func (m *contentRepoMock) ReleasePublish(ctx context.Context, id uuid.UUID) error {
	return m.ReleasePublishFunc(ctx, id)
}

func (m *contentRepoMock) LinkPublished(ctx context.Context, id uuid.UUID, remoteID, remoteURL string) (domain.ContentItem, error) {
	return m.LinkPublishedFunc(ctx, id, remoteID, remoteURL)
}

func (m *contentRepoMock) Delete(ctx context.Context, id uuid.UUID) error {
	return m.DeleteFunc(ctx, id)
}

func (m *contentRepoMock) Transitions() []domain.StatusChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.StatusChange(nil), m.transitions...)
}

// storedContent wires the mock to a single in-memory item and applies
// conditional transitions the way the postgres repository does.
func storedContent(item domain.ContentItem) *contentRepoMock {
	var mu sync.Mutex
	m := &contentRepoMock{}
	m.GetByIDFunc = func(_ context.Context, id uuid.UUID) (domain.ContentItem, error) {
		mu.Lock()
		defer mu.Unlock()
		if id != item.ID {
			return domain.ContentItem{}, domain.ErrNotFound
		}
		return item, nil
	}
	m.FindByRemotePostIDFunc = func(_ context.Context, remoteID string) (domain.ContentItem, error) {
		mu.Lock()
		defer mu.Unlock()
		if item.RemotePostID == nil || *item.RemotePostID != remoteID {
			return domain.ContentItem{}, domain.ErrNotFound
		}
		return item, nil
	}
	m.TransitionFunc = func(_ context.Context, id uuid.UUID, c domain.StatusChange) (domain.ContentItem, error) {
		mu.Lock()
		defer mu.Unlock()
		if id != item.ID || item.Status != c.From {
			return domain.ContentItem{}, domain.ErrConflict
		}
		if c.RequireValidation != nil && item.ValidationStatus != *c.RequireValidation {
			return domain.ContentItem{}, domain.ErrConflict
		}
		if c.PendingBefore != nil && (item.PendingSince == nil || item.PendingSince.After(*c.PendingBefore)) {
			return domain.ContentItem{}, domain.ErrConflict
		}
		item = applyChange(item, c)
		return item, nil
	}
	m.LinkRemoteFunc = func(_ context.Context, id uuid.UUID, remoteID, remoteURL string) (domain.ContentItem, error) {
		mu.Lock()
		defer mu.Unlock()
		item.RemotePostID, item.RemoteURL = &remoteID, &remoteURL
		return item, nil
	}
	var claimedAt *time.Time
	m.ClaimPublishFunc = func(_ context.Context, id uuid.UUID, now, staleBefore time.Time) (domain.ContentItem, error) {
		mu.Lock()
		defer mu.Unlock()
		if id != item.ID || item.Status != domain.ContentStatusApproved || item.RemotePostID != nil {
			return domain.ContentItem{}, domain.ErrConflict
		}
		if claimedAt != nil && !claimedAt.Before(staleBefore) {
			return domain.ContentItem{}, domain.ErrConflict
		}
		claimedAt = &now
		return item, nil
	}
	m.ReleasePublishFunc = func(_ context.Context, id uuid.UUID) error {
		mu.Lock()
		defer mu.Unlock()
		if item.RemotePostID == nil {
			claimedAt = nil
		}
		return nil
	}
	m.LinkPublishedFunc = func(_ context.Context, id uuid.UUID, remoteID, remoteURL string) (domain.ContentItem, error) {
		mu.Lock()
		defer mu.Unlock()
		if id != item.ID || item.Status != domain.ContentStatusApproved || item.RemotePostID != nil {
			return domain.ContentItem{}, domain.ErrConflict
		}
		item.RemotePostID, item.RemoteURL = &remoteID, &remoteURL
		claimedAt = nil
		item.Version++
		return item, nil
	}
	m.UpdateDraftFunc = func(_ context.Context, id uuid.UUID, upd domain.DraftUpdate) (domain.ContentItem, error) {
		mu.Lock()
		defer mu.Unlock()
		if item.Status != domain.ContentStatusDraft {
			return domain.ContentItem{}, domain.ErrConflict
		}
		if upd.Title != nil {
			item.Title = *upd.Title
		}
		if upd.Body != nil {
			item.Body = *upd.Body
			item.ValidationStatus = domain.ValidationStatusPending
			item.ValidationErrors = nil
		}
		return item, nil
	}
	return m
}

func applyChange(item domain.ContentItem, c domain.StatusChange) domain.ContentItem {
	item.Status = c.To
	item.PendingSince, item.AutoApproveAt = c.PendingSince, c.AutoApproveAt
	item.PublishedAt = c.PublishedAt
	if c.ApprovedAt != nil {
		item.ApprovedAt = c.ApprovedAt
	}
	if c.ApprovalMethod != nil {
		item.ApprovalMethod = c.ApprovalMethod
	}
	switch {
	case c.RejectionReason != nil:
		item.RejectionReason = c.RejectionReason
	case c.ClearRejection:
		item.RejectionReason = nil
	}
	if c.Body != nil {
		item.Body = *c.Body
	}
	if c.LinkSummary != nil {
		item.LinkSummary = *c.LinkSummary
	}
	if c.ValidationStatus != nil {
		item.ValidationStatus = *c.ValidationStatus
		item.ValidationErrors = c.ValidationErrors
	}
	if c.RemotePostID != nil {
		item.RemotePostID = c.RemotePostID
	}
	if c.RemoteURL != nil {
		item.RemoteURL = c.RemoteURL
	}
	item.Version++
	return item
}

// ---------------------------------------------------------------------------
// feedbackRepoMock
// ---------------------------------------------------------------------------

type feedbackRepoMock struct {
	CreateFunc        func(ctx context.Context, fb *domain.Feedback) (domain.Feedback, error)
	ListByContentFunc func(ctx context.Context, contentID uuid.UUID) ([]domain.Feedback, error)

	mu      sync.Mutex
	created []domain.Feedback
}

func (m *feedbackRepoMock) Create(ctx context.Context, fb *domain.Feedback) (domain.Feedback, error) {
	if m.CreateFunc != nil {
		if _, err := m.CreateFunc(ctx, fb); err != nil {
			return domain.Feedback{}, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, *fb)
	return *fb, nil
}

func (m *feedbackRepoMock) ListByContent(ctx context.Context, contentID uuid.UUID) ([]domain.Feedback, error) {
	return m.ListByContentFunc(ctx, contentID)
}

func (m *feedbackRepoMock) Created() []domain.Feedback {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Feedback(nil), m.created...)
}

// ---------------------------------------------------------------------------
// small mocks
// ---------------------------------------------------------------------------

type validationLogRepoMock struct {
	ListByContentFunc func(ctx context.Context, contentID uuid.UUID, limit int) ([]domain.ValidationLog, error)
}

func (m *validationLogRepoMock) ListByContent(ctx context.Context, contentID uuid.UUID, limit int) ([]domain.ValidationLog, error) {
	return m.ListByContentFunc(ctx, contentID, limit)
}

// txManagerMock runs fn inline and counts transactions.
type txManagerMock struct {
	mu    sync.Mutex
	calls int
}

func (m *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return fn(ctx)
}

type validatorMock struct {
	ValidateFunc func(ctx context.Context, in validation.Input) (domain.ValidationResult, error)
	calls        int
}

func (m *validatorMock) Validate(ctx context.Context, in validation.Input) (domain.ValidationResult, error) {
	m.calls++
	return m.ValidateFunc(ctx, in)
}

type publisherMock struct {
	PublishFunc func(ctx context.Context, req provider.PublishRequest) (provider.PublishResult, error)

	mu    sync.Mutex
	calls int
}

func (m *publisherMock) Publish(ctx context.Context, req provider.PublishRequest) (provider.PublishResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.PublishFunc(ctx, req)
}

func (m *publisherMock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type transformerMock struct {
	TransformFunc func(ctx context.Context, contentID uuid.UUID, html string) (linkify.Result, error)
	calls         int
}

func (m *transformerMock) Transform(ctx context.Context, contentID uuid.UUID, html string) (linkify.Result, error) {
	m.calls++
	return m.TransformFunc(ctx, contentID, html)
}
