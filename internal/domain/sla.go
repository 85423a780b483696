package domain

import (
	"time"

	"github.com/google/uuid"
)

// SLATier is the display/alerting tier of an item waiting for review.
type SLATier string

const (
	SLATierOK           SLATier = "ok"
	SLATierWarning      SLATier = "warning"
	SLATierUrgent       SLATier = "urgent"
	SLATierAutoApproved SLATier = "auto_approved"
)

// SLAStatus is the computed review-deadline view of a pending item.
type SLAStatus struct {
	ContentID           uuid.UUID     `json:"content_id"`
	PendingSince        time.Time     `json:"pending_since"`
	AutoApproveAt       time.Time     `json:"auto_approve_at"`
	DaysPending         int           `json:"days_pending"`
	Remaining           time.Duration `json:"-"`
	RemainingHours      float64       `json:"remaining_hours"`
	Tier                SLATier       `json:"tier"`
	AutoPublishEligible bool          `json:"auto_publish_eligible"`
}

// AutoApprovePolicy decides whether elapsed time alone is enough for auto-approval.
type AutoApprovePolicy string

const (
	// AutoApproveRequireValid only auto-approves items whose latest validation passed.
	AutoApproveRequireValid AutoApprovePolicy = "require_valid"
	// AutoApproveElapsedTime auto-approves on elapsed time regardless of validation status.
	AutoApproveElapsedTime AutoApprovePolicy = "elapsed_time"
)

func (p AutoApprovePolicy) IsValid() bool {
	return p == AutoApproveRequireValid || p == AutoApproveElapsedTime
}
