package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/annolab/assessment-service/internal/events"
	"github.com/annolab/assessment-service/internal/models"
	"github.com/annolab/assessment-service/internal/repositories"
	"github.com/annolab/assessment-service/internal/validator"
)

type notificationEventService struct {
	repo           repositories.Repository
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
}

func NewNotificationEventService(
	repo repositories.Repository,
	eventPublisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) NotificationEventService {
	return &notificationEventService{
		repo:           repo,
		eventPublisher: eventPublisher,
		logger:         logger,
		validator:      validator,
	}
}

func (s *notificationEventService) PublishAssessmentSubmitted(ctx context.Context, submission *models.AssessmentSubmission) error {
	event := events.Event{
		Type: events.EventAssessmentSubmitted,
		Data: events.AssessmentSubmittedEvent{
			SubmissionID:    submission.ID,
			UserID:          submission.UserID,
			AssessmentType:  string(submission.AssessmentType),
			ScorePercentage: submission.ScorePercentage,
			Passed:          submission.Passed,
			AttemptNumber:   submission.AttemptNumber,
			IsRetake:        submission.IsRetake,
		},
	}

	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish submission event: %w", err)
	}

	s.logger.Debug("Published assessment submitted event",
		"submission_id", submission.ID,
		"user_id", submission.UserID)
	return nil
}

func (s *notificationEventService) PublishStatusChanged(ctx context.Context, userID string, after models.RoleStatusPair, submissionID uint) error {
	event := events.Event{
		Type: events.EventUserStatusChanged,
		Data: events.UserStatusChangedEvent{
			UserID:            userID,
			AnnotatorStatus:   string(after.AnnotatorStatus),
			MicroTaskerStatus: string(after.MicroTaskerStatus),
			TriggeredBy:       "assessment_submission",
			SubmissionID:      submissionID,
		},
	}

	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish status change event: %w", err)
	}

	s.logger.Debug("Published user status changed event",
		"user_id", userID,
		"submission_id", submissionID)
	return nil
}

// SendResultNotification emits the in-app outcome notification for a
// scored submission.
func (s *notificationEventService) SendResultNotification(ctx context.Context, user *models.User, result *SubmissionResult) error {
	notificationType := models.NotificationAssessmentFailed
	title := "Assessment Not Passed"
	message := fmt.Sprintf("You scored %d%% (grade %s) on your %s assessment. You may retake it after the cooldown period.",
		result.ScorePercentage, result.Grade, result.AssessmentType)
	priority := models.PriorityNormal

	if result.Passed {
		notificationType = models.NotificationAssessmentPassed
		title = "Assessment Passed"
		message = fmt.Sprintf("Congratulations! You scored %d%% (grade %s) on your %s assessment.",
			result.ScorePercentage, result.Grade, result.AssessmentType)
		priority = models.PriorityHigh
	}

	return s.SendNotification(ctx, user.ID, &NotificationRequest{
		Type:     notificationType,
		Title:    title,
		Message:  message,
		Priority: priority,
		Metadata: map[string]interface{}{
			"submission_id":    result.SubmissionID,
			"assessment_type":  result.AssessmentType,
			"score_percentage": result.ScorePercentage,
			"attempt_number":   result.AttemptNumber,
		},
	})
}

func (s *notificationEventService) SendNotification(ctx context.Context, userID string, notification *NotificationRequest) error {
	if err := s.validator.Validate(notification); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	priority := notification.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	event := events.Event{
		Type: events.EventNotificationCreated,
		Data: events.NotificationCreatedEvent{
			UserID:   userID,
			Type:     string(notification.Type),
			Title:    notification.Title,
			Message:  notification.Message,
			Priority: string(priority),
			Metadata: notification.Metadata,
		},
	}

	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish notification event: %w", err)
	}

	s.logger.Debug("Published notification event",
		"user_id", userID,
		"notification_type", notification.Type)
	return nil
}
