package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContentStatus is the workflow state of a content item.
type ContentStatus string

const (
	ContentStatusDraft         ContentStatus = "draft"
	ContentStatusTransformed   ContentStatus = "transformed"
	ContentStatusValidated     ContentStatus = "validated"
	ContentStatusPendingReview ContentStatus = "pending_review"
	ContentStatusApproved      ContentStatus = "approved"
	ContentStatusPublished     ContentStatus = "published"
)

func (s ContentStatus) String() string { return string(s) }

func (s ContentStatus) IsValid() bool {
	switch s {
	case ContentStatusDraft, ContentStatusTransformed, ContentStatusValidated,
		ContentStatusPendingReview, ContentStatusApproved, ContentStatusPublished:
		return true
	}
	return false
}

// IsEditable reports whether the body may be changed by an editor.
func (s ContentStatus) IsEditable() bool {
	return s == ContentStatusDraft
}

// ValidationStatus is the cached outcome of the most recent validation run.
type ValidationStatus string

const (
	ValidationStatusPending ValidationStatus = "pending"
	ValidationStatusValid   ValidationStatus = "valid"
	ValidationStatusInvalid ValidationStatus = "invalid"
)

func (s ValidationStatus) IsValid() bool {
	switch s {
	case ValidationStatusPending, ValidationStatusValid, ValidationStatusInvalid:
		return true
	}
	return false
}

// ApprovalMethod records who moved an item to approved.
type ApprovalMethod string

const (
	ApprovalMethodManual ApprovalMethod = "manual"
	ApprovalMethodAuto   ApprovalMethod = "auto"
)

// ContentItem is the unit of work moving through the publishing workflow.
type ContentItem struct {
	ID uuid.UUID

	Title           string
	Body            string
	MetaTitle       string
	MetaDescription string
	Keywords        []string

	Status           ContentStatus
	PendingSince     *time.Time
	AutoApproveAt    *time.Time
	ApprovedAt       *time.Time
	ApprovalMethod   *ApprovalMethod
	PublishedAt      *time.Time
	RejectionReason  *string
	ValidationStatus ValidationStatus
	ValidationErrors []ValidationIssue
	LinkSummary      LinkSummary

	GenerationCost   decimal.Decimal
	VerificationCost decimal.Decimal
	TotalCost        decimal.Decimal

	RemotePostID *string
	RemoteURL    *string

	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsRejected reports whether the item is a draft sent back by a reviewer.
func (c *ContentItem) IsRejected() bool {
	return c.Status == ContentStatusDraft && c.RejectionReason != nil
}

// IsAutoApproved reports whether approval came from the SLA sweep.
func (c *ContentItem) IsAutoApproved() bool {
	return c.ApprovalMethod != nil && *c.ApprovalMethod == ApprovalMethodAuto
}

// CheckInvariants verifies the lifecycle invariants of the aggregate:
// pending_since is set iff the item is pending review, auto_approve_at only
// alongside pending_since, and published_at iff the item is published.
func (c *ContentItem) CheckInvariants() error {
	pending := c.Status == ContentStatusPendingReview
	if pending != (c.PendingSince != nil) {
		return fmt.Errorf("content %s: pending_since set=%t with status %s", c.ID, c.PendingSince != nil, c.Status)
	}
	if c.AutoApproveAt != nil && c.PendingSince == nil {
		return fmt.Errorf("content %s: auto_approve_at without pending_since", c.ID)
	}
	published := c.Status == ContentStatusPublished
	if published != (c.PublishedAt != nil) {
		return fmt.Errorf("content %s: published_at set=%t with status %s", c.ID, c.PublishedAt != nil, c.Status)
	}
	return nil
}

// LinkSummary counts the annotation tokens produced by the link transformer.
type LinkSummary struct {
	Internal  int `json:"internal"`
	Affiliate int `json:"affiliate"`
	External  int `json:"external"`
	Total     int `json:"total"`
}

// ContentFilter narrows content listings.
type ContentFilter struct {
	Status *ContentStatus
	Limit  int
	Offset int
}

// StatusChange describes one conditional status transition. The write only
// applies when the stored status equals From (and, when set, the stored
// validation status equals RequireValidation).
type StatusChange struct {
	From ContentStatus
	To   ContentStatus

	RequireValidation *ValidationStatus
	// When set, the stored pending_since must be at or before it.
	PendingBefore *time.Time

	// Required when To is pending_review; cleared for every other target.
	PendingSince  *time.Time
	AutoApproveAt *time.Time

	ApprovedAt     *time.Time
	ApprovalMethod *ApprovalMethod
	// Required when To is published.
	PublishedAt *time.Time

	RejectionReason *string
	ClearRejection  bool

	Body        *string
	LinkSummary *LinkSummary

	ValidationStatus *ValidationStatus
	ValidationErrors []ValidationIssue

	RemotePostID *string
	RemoteURL    *string
}

// DraftUpdate carries editable fields of a draft; nil fields are left unchanged.
type DraftUpdate struct {
	Title           *string
	Body            *string
	MetaTitle       *string
	MetaDescription *string
	Keywords        []string
}
