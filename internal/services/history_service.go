package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/annolab/assessment-service/internal/models"
	"github.com/annolab/assessment-service/internal/repositories"
	"github.com/annolab/assessment-service/internal/validator"
	"gorm.io/gorm"
)

type historyService struct {
	db           *gorm.DB
	repo         repositories.Repository
	logger       *slog.Logger
	validator    *validator.Validator
	scoring      ScoringService
	retakePolicy *RetakePolicy
}

func NewHistoryService(
	db *gorm.DB,
	repo repositories.Repository,
	logger *slog.Logger,
	validator *validator.Validator,
	scoring ScoringService,
	retakePolicy *RetakePolicy,
) HistoryService {
	return &historyService{
		db:           db,
		repo:         repo,
		logger:       logger,
		validator:    validator,
		scoring:      scoring,
		retakePolicy: retakePolicy,
	}
}

func (s *historyService) GetHistory(ctx context.Context, userID string, filters repositories.SubmissionFilters) (*HistoryResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}

	submissions, total, err := s.repo.Submission().ListByUser(ctx, nil, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	summaries := make([]*SubmissionSummary, 0, len(submissions))
	var bestScore *int
	var lastAttempt *time.Time
	for _, sub := range submissions {
		summaries = append(summaries, &SubmissionSummary{
			ID:               sub.ID,
			AssessmentType:   sub.AssessmentType,
			ScorePercentage:  sub.ScorePercentage,
			Grade:            s.scoring.CalculateLetterGrade(sub.ScorePercentage),
			Passed:           sub.Passed,
			AttemptNumber:    sub.AttemptNumber,
			IsRetake:         sub.IsRetake,
			TimeSpentMinutes: sub.TimeSpentMinutes,
			CompletedAt:      sub.CompletedAt,
			FlaggedForReview: sub.FlaggedForReview,
		})

		if bestScore == nil || sub.ScorePercentage > *bestScore {
			score := sub.ScorePercentage
			bestScore = &score
		}
		if lastAttempt == nil || sub.CompletedAt.After(*lastAttempt) {
			completed := sub.CompletedAt
			lastAttempt = &completed
		}
	}

	page := 1
	if filters.Limit > 0 {
		page = filters.Offset/filters.Limit + 1
	}

	return &HistoryResponse{
		Submissions: summaries,
		Total:       total,
		Page:        page,
		Size:        filters.Limit,
		BestScore:   bestScore,
		LastAttempt: lastAttempt,
	}, nil
}

// GetEligibility is a pure read: it never mutates attempt state, so
// polling it is always safe.
func (s *historyService) GetEligibility(ctx context.Context, userID string, assessmentType models.AssessmentType) (*EligibilityResponse, error) {
	if !models.IsValidAssessmentType(assessmentType) {
		return nil, NewValidationError("assessment_type", "invalid assessment type", string(assessmentType))
	}

	latest, err := s.repo.Submission().GetLatestByUserAndType(ctx, nil, userID, assessmentType)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get latest submission: %w", err)
	}

	response := &EligibilityResponse{
		AssessmentType: assessmentType,
		Eligible:       true,
	}

	if latest == nil {
		return response, nil
	}

	attempts, err := s.repo.Submission().CountByUserAndType(ctx, nil, userID, assessmentType)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	response.AttemptsUsed = int(attempts)

	best, err := s.repo.Submission().GetBestByUserAndType(ctx, nil, userID, assessmentType)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get best submission: %w", err)
	}
	if best != nil {
		score := best.ScorePercentage
		response.BestScore = &score
		response.HasPassed = best.Passed
	}

	now := time.Now()
	eligibility := s.retakePolicy.Check(latest, now)
	if !eligibility.Allowed {
		response.Eligible = false
		response.Reason = fmt.Sprintf("retake available in %d hours", eligibility.RemainingHours(now))
		response.NextRetakeTime = eligibility.NextRetakeTime
	}

	return response, nil
}

func (s *historyService) GetStats(ctx context.Context, userID string) ([]repositories.TypeStats, error) {
	stats, err := s.repo.Submission().GetStatsByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission stats: %w", err)
	}
	return stats, nil
}
