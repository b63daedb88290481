package services

import (
	"time"

	"github.com/annolab/assessment-service/internal/models"
)

// DefaultRetakeCooldown is the wait between attempts of the same type
const DefaultRetakeCooldown = 24 * time.Hour

// RetakePolicy decides whether a new attempt may start given the most
// recent submission. It is a pure read; recording the attempt and any
// race between concurrent submissions is the caller's concern.
type RetakePolicy struct {
	Cooldown time.Duration
}

func NewRetakePolicy(cooldown time.Duration) *RetakePolicy {
	if cooldown <= 0 {
		cooldown = DefaultRetakeCooldown
	}
	return &RetakePolicy{Cooldown: cooldown}
}

// RetakeEligibility is the outcome of a cooldown check
type RetakeEligibility struct {
	Allowed        bool
	NextRetakeTime *time.Time
}

// Check evaluates the cooldown against the latest submission. A nil
// latest means a first attempt, always allowed. The boundary is
// inclusive: at exactly cooldown elapsed the retake is allowed.
// The gate runs off the server-assigned CreatedAt, never the
// client-supplied CompletedAt.
func (p *RetakePolicy) Check(latest *models.AssessmentSubmission, now time.Time) RetakeEligibility {
	if latest == nil {
		return RetakeEligibility{Allowed: true}
	}

	nextRetake := latest.CreatedAt.Add(p.Cooldown)
	if now.Before(nextRetake) {
		return RetakeEligibility{
			Allowed:        false,
			NextRetakeTime: &nextRetake,
		}
	}

	return RetakeEligibility{Allowed: true}
}

// RemainingHours reports the whole hours left until the next retake,
// rounded up so a message never understates the wait
func (e RetakeEligibility) RemainingHours(now time.Time) int {
	if e.Allowed || e.NextRetakeTime == nil {
		return 0
	}
	remaining := e.NextRetakeTime.Sub(now)
	hours := int(remaining / time.Hour)
	if remaining%time.Hour > 0 {
		hours++
	}
	return hours
}
