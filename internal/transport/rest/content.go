package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/internal/service/workflow"
)

type workflowService interface {
	CreateDraft(ctx context.Context, in workflow.CreateInput) (domain.ContentItem, error)
	UpdateDraft(ctx context.Context, id uuid.UUID, in workflow.UpdateInput) (domain.ContentItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (domain.ContentItem, error)
	List(ctx context.Context, in workflow.ListInput) ([]domain.ContentItem, int, error)
	Submit(ctx context.Context, id uuid.UUID) (workflow.SubmitResult, error)
	Approve(ctx context.Context, id uuid.UUID, in workflow.ReviewInput) (domain.ContentItem, error)
	Reject(ctx context.Context, id uuid.UUID, in workflow.ReviewInput) (domain.ContentItem, error)
	RequestRewrite(ctx context.Context, id uuid.UUID, in workflow.ReviewInput) (domain.ContentItem, error)
	AddComment(ctx context.Context, id uuid.UUID, in workflow.ReviewInput) (domain.Feedback, error)
	Publish(ctx context.Context, id uuid.UUID) (domain.ContentItem, error)
	ListFeedback(ctx context.Context, id uuid.UUID) ([]domain.Feedback, error)
	ListValidations(ctx context.Context, id uuid.UUID, limit int) ([]domain.ValidationLog, error)
	SLA(ctx context.Context, id uuid.UUID) (domain.SLAStatus, error)
}

type costSummarizer interface {
	Summary(ctx context.Context, contentID uuid.UUID) (domain.CostSummary, error)
}

// ContentHandler serves the content workflow endpoints.
type ContentHandler struct {
	workflow workflowService
	costs    costSummarizer
	log      *slog.Logger
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(wf workflowService, costs costSummarizer, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		workflow: wf,
		costs:    costs,
		log:      logger.With("handler", "content"),
	}
}

// Create stores a new draft.
// POST /api/content
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(r, &req, false); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	item, err := h.workflow.CreateDraft(r.Context(), req.toInput())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toContentResponse(item))
}

// List returns content items, newest first.
// GET /api/content?status=pending_review&limit=50&offset=0
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	in := workflow.ListInput{}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.ContentStatus(v)
		in.Status = &status
	}

	var err error
	if in.Limit, err = queryInt(r, "limit"); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if in.Offset, err = queryInt(r, "offset"); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	items, total, err := h.workflow.List(r.Context(), in)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Items: mapSlice(items, toContentResponse),
		Total: total,
	})
}

// Get returns one item.
// GET /api/content/{id}
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(ctx context.Context, id uuid.UUID) (any, error) {
		item, err := h.workflow.Get(ctx, id)
		return toContentResponse(item), err
	})
}

// Update edits a draft.
// PATCH /api/content/{id}
func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeJSON(r, &req, false); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	h.withID(w, r, func(ctx context.Context, id uuid.UUID) (any, error) {
		item, err := h.workflow.UpdateDraft(ctx, id, req.toInput())
		return toContentResponse(item), err
	})
}

// Delete removes an item.
// DELETE /api/content/{id}
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if err := h.workflow.Delete(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Submit runs the transform and validation pipeline. A failed validation is
// reported in the body with status 200; the item is back in draft.
// POST /api/content/{id}/submit
func (h *ContentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(ctx context.Context, id uuid.UUID) (any, error) {
		res, err := h.workflow.Submit(ctx, id)
		if err != nil {
			return nil, err
		}
		return toSubmitResponse(res), nil
	})
}

// Approve approves a pending item.
// POST /api/content/{id}/approve
func (h *ContentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, false, h.workflow.Approve)
}

// Reject sends a pending item back to draft with a reason.
// POST /api/content/{id}/reject
func (h *ContentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, true, h.workflow.Reject)
}

// Rewrite requests a rewrite with instructions.
// POST /api/content/{id}/rewrite
func (h *ContentHandler) Rewrite(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, true, h.workflow.RequestRewrite)
}

// Comment appends a reviewer comment.
// POST /api/content/{id}/comments
func (h *ContentHandler) Comment(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(r, &req, false); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	fb, err := h.workflow.AddComment(r.Context(), id, workflow.ReviewInput{Message: req.Message})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFeedbackResponse(fb))
}

// Publish pushes an approved item to the CMS.
// POST /api/content/{id}/publish
func (h *ContentHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(ctx context.Context, id uuid.UUID) (any, error) {
		item, err := h.workflow.Publish(ctx, id)
		return toContentResponse(item), err
	})
}

// Feedback lists the reviewer feedback of an item.
// GET /api/content/{id}/feedback
func (h *ContentHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(ctx context.Context, id uuid.UUID) (any, error) {
		fbs, err := h.workflow.ListFeedback(ctx, id)
		return mapSlice(fbs, toFeedbackResponse), err
	})
}

// Validations lists the validation history of an item, newest first.
// GET /api/content/{id}/validations?limit=20
func (h *ContentHandler) Validations(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	h.withID(w, r, func(ctx context.Context, id uuid.UUID) (any, error) {
		logs, err := h.workflow.ListValidations(ctx, id, limit)
		return mapSlice(logs, toValidationLogResponse), err
	})
}

// SLA returns the review deadline view of a pending item.
// GET /api/content/{id}/sla
func (h *ContentHandler) SLA(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(ctx context.Context, id uuid.UUID) (any, error) {
		return h.workflow.SLA(ctx, id)
	})
}

// Cost returns the aggregated usage cost of an item.
// GET /api/content/{id}/cost
func (h *ContentHandler) Cost(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(ctx context.Context, id uuid.UUID) (any, error) {
		if _, err := h.workflow.Get(ctx, id); err != nil {
			return nil, err
		}
		return h.costs.Summary(ctx, id)
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type reviewFunc func(ctx context.Context, id uuid.UUID, in workflow.ReviewInput) (domain.ContentItem, error)

func (h *ContentHandler) review(w http.ResponseWriter, r *http.Request, bodyRequired bool, fn reviewFunc) {
	var req reviewRequest
	if err := decodeJSON(r, &req, !bodyRequired); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	h.withID(w, r, func(ctx context.Context, id uuid.UUID) (any, error) {
		item, err := fn(ctx, id, workflow.ReviewInput{Message: req.Message})
		return toContentResponse(item), err
	})
}

func (h *ContentHandler) withID(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) (any, error)) {
	id, err := pathID(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	resp, err := fn(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
