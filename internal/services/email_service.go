package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/annolab/assessment-service/internal/events"
	"github.com/annolab/assessment-service/internal/models"
)

const resultEmailTemplate = `<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>{{if .Passed}}Assessment Passed{{else}}Assessment Result{{end}}</h2>
  <p>Hi {{.FullName}},</p>
  {{if .Passed}}
  <p>Congratulations! You passed your {{.AssessmentType}} assessment.</p>
  {{else}}
  <p>Thank you for completing your {{.AssessmentType}} assessment. Unfortunately you did not reach the passing score this time.</p>
  {{end}}
  <table style="border-collapse: collapse;">
    <tr><td style="padding: 4px 12px 4px 0;">Score</td><td><strong>{{.ScorePercentage}}%</strong></td></tr>
    <tr><td style="padding: 4px 12px 4px 0;">Grade</td><td><strong>{{.Grade}}</strong></td></tr>
    <tr><td style="padding: 4px 12px 4px 0;">Correct points</td><td>{{.CorrectAnswers}}</td></tr>
    <tr><td style="padding: 4px 12px 4px 0;">Questions answered</td><td>{{.TotalQuestions}}</td></tr>
    <tr><td style="padding: 4px 12px 4px 0;">Attempt</td><td>{{.AttemptNumber}}</td></tr>
  </table>
  {{if not .Passed}}
  <p>You may retake the assessment after the cooldown period ends{{if .NextRetakeTime}} ({{.NextRetakeTime.Format "Jan 2, 2006 15:04 MST"}}){{end}}.</p>
  {{end}}
  <p>AnnoLab Team</p>
</body>
</html>`

type emailService struct {
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	template       *template.Template
}

func NewEmailService(eventPublisher events.EventPublisher, logger *slog.Logger) EmailService {
	return &emailService{
		eventPublisher: eventPublisher,
		logger:         logger,
		template:       template.Must(template.New("result_email").Parse(resultEmailTemplate)),
	}
}

type resultEmailData struct {
	FullName string
	*SubmissionResult
}

// SendResultEmail renders the outcome email and hands it to the mail
// consumer as an event. Delivery itself is out of process.
func (s *emailService) SendResultEmail(ctx context.Context, user *models.User, result *SubmissionResult) error {
	var body bytes.Buffer
	if err := s.template.Execute(&body, resultEmailData{FullName: user.FullName, SubmissionResult: result}); err != nil {
		return fmt.Errorf("failed to render result email: %w", err)
	}

	subject := fmt.Sprintf("Your %s assessment result", result.AssessmentType)
	if result.Passed {
		subject = fmt.Sprintf("You passed your %s assessment", result.AssessmentType)
	}

	event := events.Event{
		Type: events.EventEmailRequested,
		Data: events.EmailRequestedEvent{
			To:       user.Email,
			Subject:  subject,
			HTMLBody: body.String(),
		},
	}

	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish email event: %w", err)
	}

	s.logger.Debug("Published result email event",
		"user_id", user.ID,
		"submission_id", result.SubmissionID)
	return nil
}
