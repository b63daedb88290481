package services

import (
	"context"
	"testing"
	"time"

	"github.com/annolab/assessment-service/internal/models"
	"github.com/annolab/assessment-service/internal/repositories"
	"github.com/annolab/assessment-service/internal/validator"
	"gorm.io/gorm"
)

func newTestHistoryService(repo *mockRepository) HistoryService {
	logger := testLogger()
	v := validator.New()
	scoring := NewScoringService(nil, repo, logger, v)
	return NewHistoryService(nil, repo, logger, v, scoring, NewRetakePolicy(24*time.Hour))
}

func TestHistoryService_GetHistory(t *testing.T) {
	ctx := context.Background()

	repo := newMockRepository()
	first := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	second := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	repo.submission.ListByUserFn = func(ctx context.Context, tx *gorm.DB, userID string, filters repositories.SubmissionFilters) ([]*models.AssessmentSubmission, int64, error) {
		return []*models.AssessmentSubmission{
			{ID: 2, AssessmentType: models.TypeAnnotatorQualification, ScorePercentage: 85, Passed: true, AttemptNumber: 2, IsRetake: true, CompletedAt: second},
			{ID: 1, AssessmentType: models.TypeAnnotatorQualification, ScorePercentage: 40, Passed: false, AttemptNumber: 1, CompletedAt: first},
		}, 2, nil
	}
	svc := newTestHistoryService(repo)

	response, err := svc.GetHistory(ctx, "user-1", repositories.SubmissionFilters{Limit: 20})
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}

	if response.Total != 2 || len(response.Submissions) != 2 {
		t.Fatalf("got %d/%d submissions, want 2/2", len(response.Submissions), response.Total)
	}
	if response.BestScore == nil || *response.BestScore != 85 {
		t.Errorf("BestScore = %v, want 85", response.BestScore)
	}
	if response.LastAttempt == nil || !response.LastAttempt.Equal(second) {
		t.Errorf("LastAttempt = %v, want %v", response.LastAttempt, second)
	}
	if response.Submissions[0].Grade != "B" {
		t.Errorf("Grade = %s, want B", response.Submissions[0].Grade)
	}
	if response.Submissions[1].Grade != "F" {
		t.Errorf("Grade = %s, want F", response.Submissions[1].Grade)
	}
}

func TestHistoryService_GetEligibility(t *testing.T) {
	ctx := context.Background()

	t.Run("no attempts yet", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestHistoryService(repo)

		response, err := svc.GetEligibility(ctx, "user-1", models.TypeAnnotatorQualification)
		if err != nil {
			t.Fatalf("GetEligibility failed: %v", err)
		}
		if !response.Eligible {
			t.Error("Eligible = false, want true with no attempts")
		}
		if response.AttemptsUsed != 0 {
			t.Errorf("AttemptsUsed = %d, want 0", response.AttemptsUsed)
		}
	})

	t.Run("inside cooldown", func(t *testing.T) {
		repo := newMockRepository()
		latest := &models.AssessmentSubmission{ScorePercentage: 50, CreatedAt: time.Now().Add(-1 * time.Hour)}
		repo.submission.GetLatestByUserAndTypeFn = func(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (*models.AssessmentSubmission, error) {
			return latest, nil
		}
		repo.submission.GetBestByUserAndTypeFn = func(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (*models.AssessmentSubmission, error) {
			return latest, nil
		}
		repo.submission.CountByUserAndTypeFn = func(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (int64, error) {
			return 1, nil
		}
		svc := newTestHistoryService(repo)

		response, err := svc.GetEligibility(ctx, "user-1", models.TypeAnnotatorQualification)
		if err != nil {
			t.Fatalf("GetEligibility failed: %v", err)
		}
		if response.Eligible {
			t.Error("Eligible = true, want false inside cooldown")
		}
		if response.NextRetakeTime == nil {
			t.Error("NextRetakeTime missing")
		}
		if response.BestScore == nil || *response.BestScore != 50 {
			t.Errorf("BestScore = %v, want 50", response.BestScore)
		}
	})

	t.Run("past cooldown with pass on record", func(t *testing.T) {
		repo := newMockRepository()
		repo.submission.GetLatestByUserAndTypeFn = func(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (*models.AssessmentSubmission, error) {
			return &models.AssessmentSubmission{ScorePercentage: 60, Passed: true, CreatedAt: time.Now().Add(-72 * time.Hour)}, nil
		}
		repo.submission.GetBestByUserAndTypeFn = func(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (*models.AssessmentSubmission, error) {
			return &models.AssessmentSubmission{ScorePercentage: 90, Passed: true}, nil
		}
		repo.submission.CountByUserAndTypeFn = func(ctx context.Context, tx *gorm.DB, userID string, assessmentType models.AssessmentType) (int64, error) {
			return 3, nil
		}
		svc := newTestHistoryService(repo)

		response, err := svc.GetEligibility(ctx, "user-1", models.TypeAnnotatorQualification)
		if err != nil {
			t.Fatalf("GetEligibility failed: %v", err)
		}
		if !response.Eligible {
			t.Error("Eligible = false, want true past cooldown")
		}
		if !response.HasPassed {
			t.Error("HasPassed = false, want true")
		}
		if response.AttemptsUsed != 3 {
			t.Errorf("AttemptsUsed = %d, want 3", response.AttemptsUsed)
		}
	})

	t.Run("invalid assessment type", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestHistoryService(repo)

		if _, err := svc.GetEligibility(ctx, "user-1", "bogus"); err == nil {
			t.Fatal("expected error for bogus assessment type")
		}
	})
}
