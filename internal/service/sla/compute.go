// Package sla tracks how long content has waited for review and
// auto-approves items whose review window has elapsed.
package sla

import (
	"math"
	"time"

	"github.com/heartmarshall/contentflow-backend/internal/domain"
)

const (
	day = 24 * time.Hour

	urgentThreshold  = day
	warningThreshold = 3 * day
)

// Compute returns the deadline view of an item pending since pendingSince.
// DaysPending is floor(elapsed / 24h). An item is eligible for automatic
// approval once the full window has elapsed.
func Compute(pendingSince, now time.Time, window time.Duration) domain.SLAStatus {
	elapsed := now.Sub(pendingSince)
	if elapsed < 0 {
		elapsed = 0
	}
	deadline := pendingSince.Add(window)
	remaining := deadline.Sub(now)

	return domain.SLAStatus{
		PendingSince:        pendingSince,
		AutoApproveAt:       deadline,
		DaysPending:         int(elapsed / day),
		Remaining:           remaining,
		RemainingHours:      math.Round(remaining.Hours()*10) / 10,
		Tier:                tier(remaining),
		AutoPublishEligible: elapsed >= window,
	}
}

func tier(remaining time.Duration) domain.SLATier {
	switch {
	case remaining <= 0:
		return domain.SLATierAutoApproved
	case remaining < urgentThreshold:
		return domain.SLATierUrgent
	case remaining < warningThreshold:
		return domain.SLATierWarning
	default:
		return domain.SLATierOK
	}
}
