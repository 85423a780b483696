package rest

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/internal/service/workflow"
)

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

type createRequest struct {
	Title           string   `json:"title"`
	Body            string   `json:"body"`
	MetaTitle       string   `json:"meta_title"`
	MetaDescription string   `json:"meta_description"`
	Keywords        []string `json:"keywords"`
}

func (r createRequest) toInput() workflow.CreateInput {
	return workflow.CreateInput{
		Title:           r.Title,
		Body:            r.Body,
		MetaTitle:       r.MetaTitle,
		MetaDescription: r.MetaDescription,
		Keywords:        r.Keywords,
	}
}

type updateRequest struct {
	Title           *string  `json:"title"`
	Body            *string  `json:"body"`
	MetaTitle       *string  `json:"meta_title"`
	MetaDescription *string  `json:"meta_description"`
	Keywords        []string `json:"keywords"`
}

func (r updateRequest) toInput() workflow.UpdateInput {
	return workflow.UpdateInput{
		Title:           r.Title,
		Body:            r.Body,
		MetaTitle:       r.MetaTitle,
		MetaDescription: r.MetaDescription,
		Keywords:        r.Keywords,
	}
}

type reviewRequest struct {
	Message string `json:"message"`
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

type contentResponse struct {
	ID               uuid.UUID                `json:"id"`
	Title            string                   `json:"title"`
	Body             string                   `json:"body"`
	MetaTitle        string                   `json:"meta_title"`
	MetaDescription  string                   `json:"meta_description"`
	Keywords         []string                 `json:"keywords"`
	Status           domain.ContentStatus     `json:"status"`
	PendingSince     *time.Time               `json:"pending_since"`
	AutoApproveAt    *time.Time               `json:"auto_approve_at"`
	ApprovedAt       *time.Time               `json:"approved_at"`
	ApprovalMethod   *domain.ApprovalMethod   `json:"approval_method"`
	AutoApproved     bool                     `json:"auto_approved"`
	PublishedAt      *time.Time               `json:"published_at"`
	RejectionReason  *string                  `json:"rejection_reason"`
	ValidationStatus domain.ValidationStatus  `json:"validation_status"`
	ValidationErrors []domain.ValidationIssue `json:"validation_errors"`
	Links            domain.LinkSummary       `json:"links"`
	GenerationCost   decimal.Decimal          `json:"generation_cost"`
	VerificationCost decimal.Decimal          `json:"verification_cost"`
	TotalCost        decimal.Decimal          `json:"total_cost"`
	RemotePostID     *string                  `json:"remote_post_id"`
	RemoteURL        *string                  `json:"remote_url"`
	Version          int                      `json:"version"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

func toContentResponse(c domain.ContentItem) contentResponse {
	keywords := c.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	issues := c.ValidationErrors
	if issues == nil {
		issues = []domain.ValidationIssue{}
	}
	return contentResponse{
		ID:               c.ID,
		Title:            c.Title,
		Body:             c.Body,
		MetaTitle:        c.MetaTitle,
		MetaDescription:  c.MetaDescription,
		Keywords:         keywords,
		Status:           c.Status,
		PendingSince:     c.PendingSince,
		AutoApproveAt:    c.AutoApproveAt,
		ApprovedAt:       c.ApprovedAt,
		ApprovalMethod:   c.ApprovalMethod,
		AutoApproved:     c.IsAutoApproved(),
		PublishedAt:      c.PublishedAt,
		RejectionReason:  c.RejectionReason,
		ValidationStatus: c.ValidationStatus,
		ValidationErrors: issues,
		Links:            c.LinkSummary,
		GenerationCost:   c.GenerationCost,
		VerificationCost: c.VerificationCost,
		TotalCost:        c.TotalCost,
		RemotePostID:     c.RemotePostID,
		RemoteURL:        c.RemoteURL,
		Version:          c.Version,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

type listResponse struct {
	Items []contentResponse `json:"items"`
	Total int               `json:"total"`
}

type submitResponse struct {
	Item       contentResponse          `json:"item"`
	Links      domain.LinkSummary       `json:"links"`
	LinkIssues []string                 `json:"link_issues"`
	Validation *domain.ValidationResult `json:"validation,omitempty"`
}

func toSubmitResponse(res workflow.SubmitResult) submitResponse {
	issues := res.LinkIssues
	if issues == nil {
		issues = []string{}
	}
	return submitResponse{
		Item:       toContentResponse(res.Item),
		Links:      res.Links,
		LinkIssues: issues,
		Validation: res.Validation,
	}
}

type feedbackResponse struct {
	ID        uuid.UUID              `json:"id"`
	ContentID uuid.UUID              `json:"content_id"`
	Type      domain.FeedbackType    `json:"type"`
	Method    *domain.ApprovalMethod `json:"method,omitempty"`
	Actor     string                 `json:"actor"`
	Message   *string                `json:"message"`
	CreatedAt time.Time              `json:"created_at"`
}

func toFeedbackResponse(f domain.Feedback) feedbackResponse {
	return feedbackResponse{
		ID:        f.ID,
		ContentID: f.ContentID,
		Type:      f.Type,
		Method:    f.Method,
		Actor:     f.Actor,
		Message:   f.Message,
		CreatedAt: f.CreatedAt,
	}
}

type validationLogResponse struct {
	ID        uuid.UUID                `json:"id"`
	Passed    bool                     `json:"passed"`
	Errors    []domain.ValidationIssue `json:"errors"`
	Warnings  []domain.ValidationIssue `json:"warnings"`
	Metrics   domain.ValidationMetrics `json:"metrics"`
	CreatedAt time.Time                `json:"created_at"`
}

func toValidationLogResponse(l domain.ValidationLog) validationLogResponse {
	return validationLogResponse{
		ID:        l.ID,
		Passed:    l.Passed,
		Errors:    l.Errors,
		Warnings:  l.Warnings,
		Metrics:   l.Metrics,
		CreatedAt: l.CreatedAt,
	}
}

func mapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
