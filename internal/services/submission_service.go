package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/annolab/assessment-service/internal/models"
	"github.com/annolab/assessment-service/internal/repositories"
	"github.com/annolab/assessment-service/internal/validator"
	"gorm.io/gorm"
)

// MaxPreviousAttempts caps the denormalized prior-attempt list stored
// on each submission
const MaxPreviousAttempts = 10

type submissionService struct {
	db           *gorm.DB
	repo         repositories.Repository
	logger       *slog.Logger
	validator    *validator.Validator
	scoring      ScoringService
	retakePolicy *RetakePolicy
	notification NotificationEventService
	email        EmailService
}

func NewSubmissionService(
	db *gorm.DB,
	repo repositories.Repository,
	logger *slog.Logger,
	validator *validator.Validator,
	scoring ScoringService,
	retakePolicy *RetakePolicy,
	notification NotificationEventService,
	email EmailService,
) SubmissionService {
	return &submissionService{
		db:           db,
		repo:         repo,
		logger:       logger,
		validator:    validator,
		scoring:      scoring,
		retakePolicy: retakePolicy,
		notification: notification,
		email:        email,
	}
}

// Submit runs the full submission pipeline. Validation and scoring
// happen before any write; the submission insert and the role status
// update share one transaction; notifications and email are best effort
// after commit.
func (s *submissionService) Submit(ctx context.Context, userID string, req *SubmitAssessmentRequest, meta RequestMeta) (*SubmissionResult, error) {
	s.logger.Info("Processing assessment submission",
		"user_id", userID,
		"assessment_type", req.AssessmentType,
		"answer_count", len(req.Answers))

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if req.CompletedAt.Before(req.StartedAt) {
		return nil, NewValidationError("completed_at", "must not be before started_at", req.CompletedAt)
	}

	passingScore := req.PassingScore
	if passingScore <= 0 {
		passingScore = models.DefaultPassingScore
	}

	// Step 1: the user must exist
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	now := time.Now()

	// Step 2: retake cooldown gate
	latest, err := s.repo.Submission().GetLatestByUserAndType(ctx, nil, userID, req.AssessmentType)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get latest submission: %w", err)
	}

	eligibility := s.retakePolicy.Check(latest, now)
	if !eligibility.Allowed {
		return nil, fmt.Errorf("must wait %d more hours before retaking: %w",
			eligibility.RemainingHours(now), ErrRetakeCooldownActive)
	}

	// Step 3: attempt history for numbering and the denormalized summary
	attemptCount, err := s.repo.Submission().CountByUserAndType(ctx, nil, userID, req.AssessmentType)
	if err != nil {
		return nil, fmt.Errorf("failed to count previous attempts: %w", err)
	}
	attemptNumber := int(attemptCount) + 1
	isRetake := attemptCount > 0

	previousAttempts, err := s.collectPreviousAttempts(ctx, userID, req.AssessmentType)
	if err != nil {
		return nil, fmt.Errorf("failed to collect previous attempts: %w", err)
	}

	// Step 4: score the full answer set, fail fast on any invalid answer
	scoringResult, err := s.scoring.Score(ctx, nil, req.Answers, passingScore)
	if err != nil {
		return nil, err
	}

	// Step 5: elapsed time from the payload's own timestamps
	timeSpent := elapsedMinutes(req.StartedAt, req.CompletedAt)

	// Steps 6 and 7: role status transition, computed before any write
	statusBefore := user.RoleStatuses()
	statusAfter := ApplyStatusTransition(req.AssessmentType, scoringResult.Passed, statusBefore)

	submission, err := s.buildSubmission(userID, req, meta, scoringResult, statusBefore, statusAfter, attemptNumber, isRetake, previousAttempts, passingScore, timeSpent)
	if err != nil {
		return nil, err
	}

	// Steps 8 and 9: one transaction for the record and the status write
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Submission().Create(ctx, nil, submission); err != nil {
			return err
		}

		if !statusAfter.Equal(statusBefore) {
			if err := txRepo.User().UpdateRoleStatuses(ctx, nil, userID, statusAfter, user.StatusVersion); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			return nil, ErrStatusConflict
		}
		return nil, fmt.Errorf("failed to persist submission: %w", err)
	}

	nextRetake := now.Add(s.retakePolicy.Cooldown)
	result := &SubmissionResult{
		SubmissionID:       submission.ID,
		AssessmentType:     req.AssessmentType,
		TotalQuestions:     scoringResult.TotalQuestions,
		CorrectAnswers:     scoringResult.CorrectAnswers,
		ScorePercentage:    scoringResult.ScorePercentage,
		Passed:             scoringResult.Passed,
		Grade:              scoringResult.Grade,
		SectionPerformance: scoringResult.SectionPerformance,
		StatusBefore:       statusBefore,
		StatusAfter:        statusAfter,
		AttemptNumber:      attemptNumber,
		IsRetake:           isRetake,
		TimeSpentMinutes:   timeSpent,
		TimeSpentFormatted: formatElapsed(timeSpent),
		CompletedAt:        req.CompletedAt,
		NextRetakeTime:     &nextRetake,
	}

	// Post-commit side effects never fail the submission
	s.publishSideEffects(ctx, user, submission, result, statusBefore, statusAfter)

	s.logger.Info("Assessment submission recorded",
		"submission_id", submission.ID,
		"user_id", userID,
		"score_percentage", result.ScorePercentage,
		"passed", result.Passed,
		"attempt_number", attemptNumber)

	return result, nil
}

// GetSubmission retrieves a submission. Annotators may only read their
// own records; admins may read any.
func (s *submissionService) GetSubmission(ctx context.Context, id uint, requesterID string, requesterRole models.UserRole) (*models.AssessmentSubmission, error) {
	submission, err := s.repo.Submission().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	if requesterRole != models.RoleAdmin && submission.UserID != requesterID {
		return nil, NewPermissionError(requesterID, "submission", "read", "not the submission owner")
	}

	return submission, nil
}
