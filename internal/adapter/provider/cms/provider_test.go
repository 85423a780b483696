package cms

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/heartmarshall/contentflow-backend/internal/provider"
)

func newTestProvider(url string) *Provider {
	return NewProvider(slog.Default(), Options{
		BaseURL:     url + "/",
		Username:    "editor",
		AppPassword: "app-pass",
		Timeout:     time.Second,
	})
}

func TestProvider_Publish(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != postsPath {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "editor" || pass != "app-pass" {
			t.Errorf("basic auth = %q/%q", user, pass)
		}

		var post wpPostRequest
		if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if post.Status != "publish" || post.Title != "Title" || post.Content != "<p>body</p>" {
			t.Errorf("post = %+v", post)
		}
		if post.Meta["focus_keywords"] != "coffee,espresso" {
			t.Errorf("meta = %v", post.Meta)
		}

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 4521, "link": "https://blog.example.com/espresso"}`))
	}))
	defer srv.Close()

	res, err := newTestProvider(srv.URL).Publish(context.Background(), provider.PublishRequest{
		Title:           "Title",
		Body:            "<p>body</p>",
		MetaTitle:       "Meta",
		MetaDescription: "Description",
		Keywords:        []string{"coffee", "espresso"},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.RemoteID != "4521" || res.URL != "https://blog.example.com/espresso" {
		t.Errorf("result = %+v", res)
	}
}

func TestProvider_Publish_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		unavailable bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"code":"rest_cannot_create","message":"nope"}`, false},
		{"server error", http.StatusInternalServerError, `{"code":"internal","message":"db"}`, true},
		{"missing id", http.StatusCreated, `{"link":"x"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestProvider(srv.URL).Publish(context.Background(), provider.PublishRequest{Title: "t"})
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, provider.ErrProviderUnavailable) != tt.unavailable {
				t.Errorf("err = %v, unavailable want %t", err, tt.unavailable)
			}
		})
	}
}

func TestProvider_Publish_NotConfigured(t *testing.T) {
	t.Parallel()

	p := NewProvider(slog.Default(), Options{Timeout: time.Second})
	if _, err := p.Publish(context.Background(), provider.PublishRequest{}); err == nil {
		t.Fatal("expected error without base url")
	}
}
