package workflow

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

const (
	maxTitleLength   = 500
	maxMessageLength = 5000
	maxKeywords      = 50
	maxListLimit     = 200
)

// CreateInput describes a freshly generated draft.
type CreateInput struct {
	Title           string
	Body            string
	MetaTitle       string
	MetaDescription string
	Keywords        []string
}

// Validate checks all fields and collects all errors.
func (i CreateInput) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.Title) == "" {
		errs = append(errs, domain.FieldError{Field: "title", Message: "required"})
	} else if utf8.RuneCountInString(i.Title) > maxTitleLength {
		errs = append(errs, domain.FieldError{Field: "title", Message: "too long"})
	}
	if strings.TrimSpace(i.Body) == "" {
		errs = append(errs, domain.FieldError{Field: "body", Message: "required"})
	}
	errs = append(errs, validateKeywords(i.Keywords)...)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// UpdateInput changes editable fields of a draft. Nil fields are left unchanged.
type UpdateInput struct {
	Title           *string
	Body            *string
	MetaTitle       *string
	MetaDescription *string
	Keywords        []string
}

// Validate checks all fields and collects all errors.
func (i UpdateInput) Validate() error {
	var errs []domain.FieldError

	if i.Title == nil && i.Body == nil && i.MetaTitle == nil && i.MetaDescription == nil && i.Keywords == nil {
		errs = append(errs, domain.FieldError{Field: "input", Message: "nothing to update"})
	}
	if i.Title != nil {
		if strings.TrimSpace(*i.Title) == "" {
			errs = append(errs, domain.FieldError{Field: "title", Message: "must not be empty"})
		} else if utf8.RuneCountInString(*i.Title) > maxTitleLength {
			errs = append(errs, domain.FieldError{Field: "title", Message: "too long"})
		}
	}
	if i.Body != nil && strings.TrimSpace(*i.Body) == "" {
		errs = append(errs, domain.FieldError{Field: "body", Message: "must not be empty"})
	}
	errs = append(errs, validateKeywords(i.Keywords)...)

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func validateKeywords(keywords []string) []domain.FieldError {
	if len(keywords) > maxKeywords {
		return []domain.FieldError{{Field: "keywords", Message: "too many keywords"}}
	}
	for _, k := range keywords {
		if strings.TrimSpace(k) == "" {
			return []domain.FieldError{{Field: "keywords", Message: "must not contain empty keywords"}}
		}
	}
	return nil
}

// ReviewInput is a reviewer decision. Message is a reject reason, rewrite
// instructions, or an optional note on approval.
type ReviewInput struct {
	Message string
}

func (i ReviewInput) validate(required bool, field string) error {
	msg := strings.TrimSpace(i.Message)
	if required && msg == "" {
		return domain.NewValidationError(field, "required")
	}
	if utf8.RuneCountInString(msg) > maxMessageLength {
		return domain.NewValidationError(field, "too long")
	}
	return nil
}

func (i ReviewInput) message() *string {
	msg := strings.TrimSpace(i.Message)
	if msg == "" {
		return nil
	}
	return &msg
}

// ListInput pages through content items.
type ListInput struct {
	Status *domain.ContentStatus
	Limit  int
	Offset int
}

// Validate checks all fields and collects all errors.
func (i ListInput) Validate() error {
	var errs []domain.FieldError

	if i.Status != nil && !i.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "unknown status"})
	}
	if i.Limit < 0 || i.Limit > maxListLimit {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "must be between 0 and 200"})
	}
	if i.Offset < 0 {
		errs = append(errs, domain.FieldError{Field: "offset", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// ConfirmInput is the body of a publish confirmation sent by the CMS.
type ConfirmInput struct {
	PostID         string
	PostURL        string
	PostTitle      string
	Status         string
	ContentQueueID *uuid.UUID
}

// Validate checks all fields and collects all errors.
func (i ConfirmInput) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.PostID) == "" {
		errs = append(errs, domain.FieldError{Field: "post_id", Message: "required"})
	}
	if strings.TrimSpace(i.PostURL) == "" {
		errs = append(errs, domain.FieldError{Field: "post_url", Message: "required"})
	}
	if strings.TrimSpace(i.Status) == "" {
		errs = append(errs, domain.FieldError{Field: "status", Message: "required"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// isLive reports whether the CMS status means the post is publicly visible.
func (i ConfirmInput) isLive() bool {
	switch strings.ToLower(strings.TrimSpace(i.Status)) {
	case "publish", "published", "live":
		return true
	}
	return false
}
