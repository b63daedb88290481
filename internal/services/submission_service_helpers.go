package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/annolab/assessment-service/internal/models"
	"github.com/annolab/assessment-service/internal/repositories"
	"gorm.io/datatypes"
)

// ===== SUBMISSION ASSEMBLY =====

func (s *submissionService) buildSubmission(
	userID string,
	req *SubmitAssessmentRequest,
	meta RequestMeta,
	scoring *ScoringResult,
	statusBefore, statusAfter models.RoleStatusPair,
	attemptNumber int,
	isRetake bool,
	previousAttempts []models.AttemptSummary,
	passingScore int,
	timeSpentMinutes int,
) (*models.AssessmentSubmission, error) {
	questionsJSON, err := json.Marshal(scoring.Snapshots)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal question snapshots: %w", err)
	}
	sectionJSON, err := json.Marshal(scoring.SectionPerformance)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal section performance: %w", err)
	}
	beforeJSON, err := json.Marshal(statusBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status before: %w", err)
	}
	afterJSON, err := json.Marshal(statusAfter)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status after: %w", err)
	}
	attemptsJSON, err := json.Marshal(previousAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal previous attempts: %w", err)
	}

	submission := &models.AssessmentSubmission{
		UserID:             userID,
		AssessmentType:     req.AssessmentType,
		TotalQuestions:     scoring.TotalQuestions,
		CorrectAnswers:     scoring.CorrectAnswers,
		ScorePercentage:    scoring.ScorePercentage,
		Passed:             scoring.Passed,
		PassingScore:       passingScore,
		StartedAt:          req.StartedAt,
		CompletedAt:        req.CompletedAt,
		TimeSpentMinutes:   timeSpentMinutes,
		Questions:          datatypes.JSON(questionsJSON),
		SectionPerformance: datatypes.JSON(sectionJSON),
		StatusBefore:       datatypes.JSON(beforeJSON),
		StatusAfter:        datatypes.JSON(afterJSON),
		AttemptNumber:      attemptNumber,
		IsRetake:           isRetake,
		PreviousAttempts:   datatypes.JSON(attemptsJSON),
	}

	if meta.ClientIP != "" {
		ip := meta.ClientIP
		submission.ClientIP = &ip
	}
	if meta.UserAgent != "" {
		ua := meta.UserAgent
		submission.UserAgent = &ua
	}

	return submission, nil
}

// collectPreviousAttempts builds the compact prior-attempt list stored
// on the new record, newest first, capped at MaxPreviousAttempts.
func (s *submissionService) collectPreviousAttempts(ctx context.Context, userID string, assessmentType models.AssessmentType) ([]models.AttemptSummary, error) {
	filters := repositories.SubmissionFilters{
		AssessmentType: &assessmentType,
		Limit:          MaxPreviousAttempts,
		SortBy:         "completed_at",
		SortOrder:      "desc",
	}

	prior, _, err := s.repo.Submission().ListByUser(ctx, nil, userID, filters)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.AttemptSummary, 0, len(prior))
	for _, p := range prior {
		summaries = append(summaries, models.AttemptSummary{
			Date:   p.CompletedAt,
			Score:  p.ScorePercentage,
			Passed: p.Passed,
		})
	}
	return summaries, nil
}

func elapsedMinutes(startedAt, completedAt time.Time) int {
	if completedAt.Before(startedAt) {
		return 0
	}
	return int(math.Round(completedAt.Sub(startedAt).Minutes()))
}

// formatElapsed renders minutes as a short human string, "45m" or "1h 30m"
func formatElapsed(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// ===== POST-COMMIT SIDE EFFECTS =====

// publishSideEffects fans out events, the result notification, and the
// result email after the transaction commits. Failures are logged and
// swallowed so they never undo a recorded submission.
func (s *submissionService) publishSideEffects(
	ctx context.Context,
	user *models.User,
	submission *models.AssessmentSubmission,
	result *SubmissionResult,
	statusBefore, statusAfter models.RoleStatusPair,
) {
	if s.notification != nil {
		if err := s.notification.PublishAssessmentSubmitted(ctx, submission); err != nil {
			s.logger.Warn("Failed to publish submission event",
				"submission_id", submission.ID, "error", err)
		}

		if !statusAfter.Equal(statusBefore) {
			if err := s.notification.PublishStatusChanged(ctx, user.ID, statusAfter, submission.ID); err != nil {
				s.logger.Warn("Failed to publish status change event",
					"user_id", user.ID, "submission_id", submission.ID, "error", err)
			}
		}

		if err := s.notification.SendResultNotification(ctx, user, result); err != nil {
			s.logger.Warn("Failed to send result notification",
				"user_id", user.ID, "submission_id", submission.ID, "error", err)
		}
	}

	if s.email != nil {
		if err := s.email.SendResultEmail(ctx, user, result); err != nil {
			s.logger.Warn("Failed to send result email",
				"user_id", user.ID, "submission_id", submission.ID, "error", err)
		}
	}
}
