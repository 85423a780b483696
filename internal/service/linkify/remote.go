package linkify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

// Remote delegates the rewrite to an HTTP service. Any transport or protocol
// failure yields an unsuccessful Result carrying the original body.
type Remote struct {
	url        string
	httpClient *http.Client
	log        *slog.Logger
}

// NewRemote creates a transformer that POSTs bodies to url.
func NewRemote(log *slog.Logger, url string, timeout time.Duration) *Remote {
	return &Remote{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("adapter", "linkify_remote"),
	}
}

type remoteRequest struct {
	ContentID string `json:"content_id"`
	Content   string `json:"content"`
}

type remoteResponse struct {
	Success         bool               `json:"success"`
	Content         string             `json:"content"`
	Transformations domain.LinkSummary `json:"transformations"`
	Issues          []string           `json:"issues"`
}

func (r *Remote) Transform(ctx context.Context, contentID uuid.UUID, body string) (Result, error) {
	res, err := r.call(ctx, contentID, body)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		r.log.WarnContext(ctx, "remote link transform failed",
			slog.String("content_id", contentID.String()),
			slog.String("error", err.Error()))
		return Result{
			Content: body,
			Success: false,
			Issues:  []string{"link transformer unavailable: " + err.Error()},
		}, nil
	}
	return res, nil
}

func (r *Remote) call(ctx context.Context, contentID uuid.UUID, body string) (Result, error) {
	payload, err := json.Marshal(remoteRequest{ContentID: contentID.String(), Content: body})
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read body: %w", err)
	}

	var out remoteResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return Result{}, fmt.Errorf("decode json: %w", err)
	}
	if !out.Success {
		issues := append([]string{"link transformer reported failure"}, out.Issues...)
		return Result{Content: body, Success: false, Issues: issues}, nil
	}

	summary := out.Transformations
	summary.Total = summary.Internal + summary.Affiliate + summary.External
	return Result{
		Content: out.Content,
		Success: true,
		Summary: summary,
		Issues:  out.Issues,
	}, nil
}
