package services

import (
	"testing"
	"time"

	"github.com/annolab/assessment-service/internal/models"
)

func TestRetakePolicy_Check(t *testing.T) {
	policy := NewRetakePolicy(24 * time.Hour)
	recordedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	latest := &models.AssessmentSubmission{CreatedAt: recordedAt}

	t.Run("no previous attempt", func(t *testing.T) {
		result := policy.Check(nil, recordedAt)
		if !result.Allowed {
			t.Error("Allowed = false, want true with no prior attempt")
		}
	})

	t.Run("inside cooldown", func(t *testing.T) {
		result := policy.Check(latest, recordedAt.Add(23*time.Hour))
		if result.Allowed {
			t.Error("Allowed = true, want false inside cooldown")
		}
		if result.NextRetakeTime == nil || !result.NextRetakeTime.Equal(recordedAt.Add(24*time.Hour)) {
			t.Errorf("NextRetakeTime = %v, want %v", result.NextRetakeTime, recordedAt.Add(24*time.Hour))
		}
	})

	t.Run("one nanosecond before boundary", func(t *testing.T) {
		result := policy.Check(latest, recordedAt.Add(24*time.Hour-time.Nanosecond))
		if result.Allowed {
			t.Error("Allowed = true, want false just before the boundary")
		}
	})

	t.Run("exactly at boundary", func(t *testing.T) {
		// The boundary is inclusive: a retake at exactly creation plus
		// cooldown is allowed.
		result := policy.Check(latest, recordedAt.Add(24*time.Hour))
		if !result.Allowed {
			t.Error("Allowed = false, want true at the exact boundary")
		}
	})

	t.Run("gates on record time not reported completion", func(t *testing.T) {
		backdated := &models.AssessmentSubmission{
			CreatedAt:   recordedAt,
			CompletedAt: recordedAt.Add(-72 * time.Hour),
		}
		result := policy.Check(backdated, recordedAt.Add(1*time.Hour))
		if result.Allowed {
			t.Error("Allowed = true, want false when only the reported completion is old")
		}
	})

	t.Run("after boundary", func(t *testing.T) {
		result := policy.Check(latest, recordedAt.Add(25*time.Hour))
		if !result.Allowed {
			t.Error("Allowed = false, want true after the boundary")
		}
	})
}

func TestRetakeEligibility_RemainingHours(t *testing.T) {
	policy := NewRetakePolicy(24 * time.Hour)
	recordedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	latest := &models.AssessmentSubmission{CreatedAt: recordedAt}

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"just submitted", recordedAt, 24},
		{"half hour in", recordedAt.Add(30 * time.Minute), 24},
		{"one hour in", recordedAt.Add(1 * time.Hour), 23},
		{"almost done", recordedAt.Add(23*time.Hour + 59*time.Minute), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := policy.Check(latest, tt.now)
			if got := result.RemainingHours(tt.now); got != tt.want {
				t.Errorf("RemainingHours = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewRetakePolicy_DefaultCooldown(t *testing.T) {
	policy := NewRetakePolicy(0)
	if policy.Cooldown != DefaultRetakeCooldown {
		t.Errorf("Cooldown = %v, want %v", policy.Cooldown, DefaultRetakeCooldown)
	}
}
