package domain

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackType is the reviewer intent captured by a feedback row.
type FeedbackType string

const (
	FeedbackTypeApprove FeedbackType = "approve"
	FeedbackTypeReject  FeedbackType = "reject"
	FeedbackTypeComment FeedbackType = "comment"
	FeedbackTypeRewrite FeedbackType = "rewrite"
)

func (t FeedbackType) IsValid() bool {
	switch t {
	case FeedbackTypeApprove, FeedbackTypeReject, FeedbackTypeComment, FeedbackTypeRewrite:
		return true
	}
	return false
}

// Feedback is an append-only reviewer annotation on a content item.
type Feedback struct {
	ID        uuid.UUID
	ContentID uuid.UUID
	Type      FeedbackType
	Method    *ApprovalMethod
	Actor     string
	Message   *string
	CreatedAt time.Time
}
