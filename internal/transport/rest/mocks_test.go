package rest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/config"
	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/internal/service/llm"
	"github.com/heartmarshall/contentflow-backend/internal/service/workflow"
	"github.com/heartmarshall/contentflow-backend/internal/transport/middleware"
)

var (
	_ workflowService      = &workflowMock{}
	_ costSummarizer       = &costSummarizerMock{}
	_ llmService           = &llmServiceMock{}
	_ publicationConfirmer = &confirmerMock{}
)

type workflowMock struct {
	CreateDraftFunc     func(ctx context.Context, in workflow.CreateInput) (domain.ContentItem, error)
	UpdateDraftFunc     func(ctx context.Context, id uuid.UUID, in workflow.UpdateInput) (domain.ContentItem, error)
	DeleteFunc          func(ctx context.Context, id uuid.UUID) error
	GetFunc             func(ctx context.Context, id uuid.UUID) (domain.ContentItem, error)
	ListFunc            func(ctx context.Context, in workflow.ListInput) ([]domain.ContentItem, int, error)
	SubmitFunc          func(ctx context.Context, id uuid.UUID) (workflow.SubmitResult, error)
	ApproveFunc         func(ctx context.Context, id uuid.UUID, in workflow.ReviewInput) (domain.ContentItem, error)
	RejectFunc          func(ctx context.Context, id uuid.UUID, in workflow.ReviewInput) (domain.ContentItem, error)
	RequestRewriteFunc  func(ctx context.Context, id uuid.UUID, in workflow.ReviewInput) (domain.ContentItem, error)
	AddCommentFunc      func(ctx context.Context, id uuid.UUID, in workflow.ReviewInput) (domain.Feedback, error)
	PublishFunc         func(ctx context.Context, id uuid.UUID) (domain.ContentItem, error)
	ListFeedbackFunc    func(ctx context.Context, id uuid.UUID) ([]domain.Feedback, error)
	ListValidationsFunc func(ctx context.Context, id uuid.UUID, limit int) ([]domain.ValidationLog, error)
	SLAFunc             func(ctx context.Context, id uuid.UUID) (domain.SLAStatus, error)
}

func (m *workflowMock) CreateDraft(ctx context.Context, in workflow.CreateInput) (domain.ContentItem, error) {
	return m.CreateDraftFunc(ctx, in)
}

func (m *workflowMock) UpdateDraft(ctx context.Context, id uuid.UUID, in workflow.UpdateInput) (domain.ContentItem, error) {
	return m.UpdateDraftFunc(ctx, id, in)
}

func (m *workflowMock) Delete(ctx context.Context, id uuid.UUID) error {
	return m.DeleteFunc(ctx, id)
}

func (m *workflowMock) Get(ctx context.Context, id uuid.UUID) (domain.ContentItem, error) {
	return m.GetFunc(ctx, id)
}

func (m *workflowMock) List(ctx context.Context, in workflow.ListInput) ([]domain.ContentItem, int, error) {
	return m.ListFunc(ctx, in)
}

func (m *workflowMock) Submit(ctx context.Context, id uuid.UUID) (workflow.SubmitResult, error) {
	return m.SubmitFunc(ctx, id)
}

func (m *workflowMock) Approve(ctx context.Context, id uuid.UUID, in workflow.ReviewInput) (domain.ContentItem, error) {
	return m.ApproveFunc(ctx, id, in)
}

func (m *workflowMock) Reject(ctx context.Context, id uuid.UUID, in workflow.ReviewInput) (domain.ContentItem, error) {
	return m.RejectFunc(ctx, id, in)
}

func (m *workflowMock) RequestRewrite(ctx context.Context, id uuid.UUID, in workflow.ReviewInput) (domain.ContentItem, error) {
	return m.RequestRewriteFunc(ctx, id, in)
}

func (m *workflowMock) AddComment(ctx context.Context, id uuid.UUID, in workflow.ReviewInput) (domain.Feedback, error) {
	return m.AddCommentFunc(ctx, id, in)
}

func (m *workflowMock) Publish(ctx context.Context, id uuid.UUID) (domain.ContentItem, error) {
	return m.PublishFunc(ctx, id)
}

func (m *workflowMock) ListFeedback(ctx context.Context, id uuid.UUID) ([]domain.Feedback, error) {
	return m.ListFeedbackFunc(ctx, id)
}

func (m *workflowMock) ListValidations(ctx context.Context, id uuid.UUID, limit int) ([]domain.ValidationLog, error) {
	return m.ListValidationsFunc(ctx, id, limit)
}

func (m *workflowMock) SLA(ctx context.Context, id uuid.UUID) (domain.SLAStatus, error) {
	return m.SLAFunc(ctx, id)
}

type costSummarizerMock struct {
	SummaryFunc func(ctx context.Context, contentID uuid.UUID) (domain.CostSummary, error)
}

func (m *costSummarizerMock) Summary(ctx context.Context, contentID uuid.UUID) (domain.CostSummary, error) {
	return m.SummaryFunc(ctx, contentID)
}

type llmServiceMock struct {
	InvokeFunc    func(ctx context.Context, in llm.Request) (llm.Response, error)
	ProvidersFunc func() []string
}

func (m *llmServiceMock) Invoke(ctx context.Context, in llm.Request) (llm.Response, error) {
	return m.InvokeFunc(ctx, in)
}

func (m *llmServiceMock) Providers() []string {
	return m.ProvidersFunc()
}

type confirmerMock struct {
	mu    sync.Mutex
	calls []workflow.ConfirmInput

	ConfirmPublicationFunc func(ctx context.Context, in workflow.ConfirmInput) (workflow.ConfirmResult, error)
}

func (m *confirmerMock) ConfirmPublication(ctx context.Context, in workflow.ConfirmInput) (workflow.ConfirmResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, in)
	m.mu.Unlock()
	return m.ConfirmPublicationFunc(ctx, in)
}

func (m *confirmerMock) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// ---------------------------------------------------------------------------
// Router fixture
// ---------------------------------------------------------------------------

type fixture struct {
	workflow  *workflowMock
	costs     *costSummarizerMock
	llm       *llmServiceMock
	confirmer *confirmerMock
	secret    string
	rateLimit config.RateLimitConfig
}

func newFixture() *fixture {
	return &fixture{
		workflow:  &workflowMock{},
		costs:     &costSummarizerMock{},
		llm:       &llmServiceMock{},
		confirmer: &confirmerMock{},
	}
}

func (f *fixture) router(t *testing.T) http.Handler {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rl := middleware.NewRateLimiter(time.Minute)
	t.Cleanup(rl.Stop)

	return NewRouter(log, Handlers{
		Health:  NewHealthHandler(map[string]Pinger{"database": &pingerMock{}}, "test"),
		Content: NewContentHandler(f.workflow, f.costs, log),
		LLM:     NewLLMHandler(f.llm, log),
		Webhook: NewWebhookHandler(f.confirmer, f.secret, log),
	}, RouterConfig{
		CORS:      config.CORSConfig{AllowedOrigins: "*", AllowedMethods: "GET,POST,PATCH,DELETE", AllowedHeaders: "Content-Type"},
		RateLimit: f.rateLimit,
	}, rl)
}
