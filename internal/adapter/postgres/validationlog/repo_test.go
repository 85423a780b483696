package validationlog_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/contentflow-backend/internal/adapter/postgres/validationlog"
	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

func TestRepo_AppendAndList(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := validationlog.New(pool)
	ctx := context.Background()

	contentID := uuid.New()

	failed := domain.ValidationResult{
		Passed: false,
		Errors: []domain.ValidationIssue{{Type: "word_count", Message: "too short"}},
		Metrics: domain.ValidationMetrics{
			WordCount:     120,
			InternalLinks: 1,
		},
	}
	if _, err := repo.Append(ctx, contentID, failed); err != nil {
		t.Fatalf("Append failed result: %v", err)
	}

	passed := domain.ValidationResult{
		Passed:   true,
		Warnings: []domain.ValidationIssue{{Type: "title_length", Message: "title is 48 characters"}},
		Metrics:  domain.ValidationMetrics{WordCount: 1800, InternalLinks: 3, ExternalLinks: 1, HasStructuredData: true},
	}
	second, err := repo.Append(ctx, contentID, passed)
	if err != nil {
		t.Fatalf("Append passed result: %v", err)
	}

	logs, err := repo.ListByContent(ctx, contentID, 0)
	if err != nil {
		t.Fatalf("ListByContent: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("len = %d, want 2", len(logs))
	}
	if logs[0].ID != second.ID {
		t.Errorf("newest first: got %s, want %s", logs[0].ID, second.ID)
	}
	if !logs[0].Passed || len(logs[0].Errors) != 0 || len(logs[0].Warnings) != 1 {
		t.Errorf("unexpected latest log: %+v", logs[0])
	}
	if logs[0].Metrics.WordCount != 1800 || !logs[0].Metrics.HasStructuredData {
		t.Errorf("metrics round trip: %+v", logs[0].Metrics)
	}
	if logs[1].Passed || logs[1].Errors[0].Type != "word_count" {
		t.Errorf("unexpected first log: %+v", logs[1])
	}

	limited, err := repo.ListByContent(ctx, contentID, 1)
	if err != nil {
		t.Fatalf("ListByContent limit: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit ignored: len = %d", len(limited))
	}
}
