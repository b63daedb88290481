package models

type NotificationType string

const (
	NotificationAssessmentPassed NotificationType = "assessment_passed"
	NotificationAssessmentFailed NotificationType = "assessment_failed"
	NotificationStatusChanged    NotificationType = "status_changed"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

// Notification is the payload handed to the notification event stream.
// Delivery is owned by a downstream consumer; this service only emits.
type Notification struct {
	UserID   string               `json:"user_id"`
	Type     NotificationType     `json:"type"`
	Title    string               `json:"title"`
	Message  string               `json:"message"`
	Priority NotificationPriority `json:"priority"`
	Metadata map[string]any       `json:"metadata,omitempty"`
}
