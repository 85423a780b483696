// Package cms publishes content to a WordPress-compatible REST API.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/heartmarshall/contentflow-backend/internal/provider"
)

const postsPath = "/wp-json/wp/v2/posts"

// Provider creates posts on the CMS.
type Provider struct {
	baseURL     string
	username    string
	appPassword string
	postStatus  string
	httpClient  *http.Client
	log         *slog.Logger
}

// Options configures a Provider.
type Options struct {
	BaseURL     string
	Username    string
	AppPassword string
	PostStatus  string
	Timeout     time.Duration
}

// NewProvider creates a CMS provider.
func NewProvider(logger *slog.Logger, opts Options) *Provider {
	status := opts.PostStatus
	if status == "" {
		status = "publish"
	}
	return &Provider{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		username:    opts.Username,
		appPassword: opts.AppPassword,
		postStatus:  status,
		httpClient:  &http.Client{Timeout: opts.Timeout},
		log:         logger.With("adapter", "cms"),
	}
}

// Publish creates one post. A POST is never retried here since a timed out
// request may still have created the post.
func (p *Provider) Publish(ctx context.Context, req provider.PublishRequest) (provider.PublishResult, error) {
	if p.baseURL == "" {
		return provider.PublishResult{}, errors.New("cms: base url not configured")
	}

	payload, err := json.Marshal(toPost(req, p.postStatus))
	if err != nil {
		return provider.PublishResult{}, fmt.Errorf("cms: encode post: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+postsPath, bytes.NewReader(payload))
	if err != nil {
		return provider.PublishResult{}, fmt.Errorf("cms: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(p.username, p.appPassword)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.log.ErrorContext(ctx, "cms request failed", slog.String("error", err.Error()))
		return provider.PublishResult{}, fmt.Errorf("cms: %w: %w", provider.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.PublishResult{}, fmt.Errorf("cms: read body: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var e wpError
		_ = json.Unmarshal(body, &e)
		if resp.StatusCode >= 500 {
			return provider.PublishResult{}, fmt.Errorf("cms: %w: status %d %s", provider.ErrProviderUnavailable, resp.StatusCode, e.Message)
		}
		return provider.PublishResult{}, fmt.Errorf("cms: status %d: %s %s", resp.StatusCode, e.Code, e.Message)
	}

	var created wpPost
	if err := json.Unmarshal(body, &created); err != nil {
		return provider.PublishResult{}, fmt.Errorf("cms: decode json: %w", err)
	}
	if created.ID == 0 {
		return provider.PublishResult{}, errors.New("cms: response has no post id")
	}

	res := provider.PublishResult{
		RemoteID: strconv.FormatInt(created.ID, 10),
		URL:      created.Link,
	}
	p.log.InfoContext(ctx, "post created",
		slog.String("remote_id", res.RemoteID),
		slog.String("url", res.URL))
	return res, nil
}
