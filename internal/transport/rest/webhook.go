package rest

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
	"github.com/heartmarshall/contentflow-backend/internal/service/workflow"
)

// WebhookSecretHeader carries the shared secret of inbound CMS callbacks.
const WebhookSecretHeader = "X-Webhook-Secret"

type publicationConfirmer interface {
	ConfirmPublication(ctx context.Context, in workflow.ConfirmInput) (workflow.ConfirmResult, error)
}

// WebhookHandler receives publish confirmations from the CMS.
type WebhookHandler struct {
	confirmer publicationConfirmer
	secret    []byte
	log       *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler. An empty secret disables the
// shared-secret check.
func NewWebhookHandler(confirmer publicationConfirmer, secret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		confirmer: confirmer,
		secret:    []byte(secret),
		log:       logger.With("handler", "webhook"),
	}
}

// looseString accepts both JSON strings and numbers; CMS post ids are often numeric.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}

type confirmationRequest struct {
	PostID         looseString `json:"post_id"`
	PostURL        string      `json:"post_url"`
	PostTitle      string      `json:"post_title"`
	Status         string      `json:"status"`
	ContentQueueID string      `json:"content_queue_id"`
}

type confirmationResponse struct {
	Success   bool       `json:"success"`
	ContentID *uuid.UUID `json:"content_id,omitempty"`
	Status    string     `json:"status,omitempty"`
	Warning   string     `json:"warning,omitempty"`
}

// PublishConfirmation handles POST /webhooks/publish-confirmation.
// A mismatched secret is rejected before the body is read, so nothing is written.
func (h *WebhookHandler) PublishConfirmation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if !h.authorized(r) {
		h.log.WarnContext(r.Context(), "webhook secret mismatch",
			slog.String("remote_addr", r.RemoteAddr))
		writeError(w, http.StatusUnauthorized, "invalid webhook secret")
		return
	}

	var req confirmationRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	in := workflow.ConfirmInput{
		PostID:    string(req.PostID),
		PostURL:   req.PostURL,
		PostTitle: req.PostTitle,
		Status:    req.Status,
	}
	if v := strings.TrimSpace(req.ContentQueueID); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			handleError(h.log, w, r, domain.NewValidationError("content_queue_id", "must be a UUID"))
			return
		}
		in.ContentQueueID = &id
	}

	res, err := h.confirmer.ConfirmPublication(r.Context(), in)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, confirmationResponse{
		Success:   true,
		ContentID: res.ContentID,
		Status:    res.Status,
		Warning:   res.Warning,
	})
}

func (h *WebhookHandler) authorized(r *http.Request) bool {
	if len(h.secret) == 0 {
		return true
	}
	got := []byte(r.Header.Get(WebhookSecretHeader))
	return subtle.ConstantTimeCompare(got, h.secret) == 1
}
