package events

import (
	"context"
	"time"
)

// Event is the envelope for every message this service publishes
type Event struct {
	ID        string      `json:"id"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
}

// Event types emitted by this service
const (
	EventAssessmentSubmitted = "assessment.submitted"
	EventUserStatusChanged   = "user.status_changed"
	EventNotificationCreated = "notification.created"
	EventEmailRequested      = "email.requested"
)

const (
	eventSource  = "assessment-service"
	eventVersion = "1.0"
)

// EventPublisher publishes events to the message broker
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// AssessmentSubmittedEvent is emitted after every scored submission
type AssessmentSubmittedEvent struct {
	SubmissionID    uint   `json:"submission_id"`
	UserID          string `json:"user_id"`
	AssessmentType  string `json:"assessment_type"`
	ScorePercentage int    `json:"score_percentage"`
	Passed          bool   `json:"passed"`
	AttemptNumber   int    `json:"attempt_number"`
	IsRetake        bool   `json:"is_retake"`
}

// UserStatusChangedEvent is emitted when a submission moves role statuses
type UserStatusChangedEvent struct {
	UserID            string `json:"user_id"`
	AnnotatorStatus   string `json:"annotator_status"`
	MicroTaskerStatus string `json:"micro_tasker_status"`
	TriggeredBy       string `json:"triggered_by"`
	SubmissionID      uint   `json:"submission_id"`
}

// NotificationCreatedEvent carries an in-app notification for the
// downstream notification consumer
type NotificationCreatedEvent struct {
	UserID   string                 `json:"user_id"`
	Type     string                 `json:"type"`
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
	Priority string                 `json:"priority"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// EmailRequestedEvent carries a rendered email for the mail consumer
type EmailRequestedEvent struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}
