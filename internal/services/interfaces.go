package services

import (
	"context"
	"time"

	"github.com/annolab/assessment-service/internal/models"
	"github.com/annolab/assessment-service/internal/repositories"
	"github.com/annolab/assessment-service/internal/validator"
	"gorm.io/gorm"
)

// ===== QUESTION RELATED DTOs =====

// Use business validator types
type CreateQuestionRequest = validator.QuestionCreateRequest
type UpdateQuestionRequest = validator.QuestionUpdateRequest

type AssessmentQuestionsRequest struct {
	AssessmentType models.AssessmentType `json:"assessment_type" validate:"required,assessment_type"`
	PerSection     int                   `json:"per_section" validate:"omitempty,min=1,max=25"`
}

type AssessmentQuestionsResponse struct {
	AssessmentType models.AssessmentType    `json:"assessment_type"`
	Questions      []models.SampledQuestion `json:"questions"`
	TotalQuestions int                      `json:"total_questions"`
	GeneratedAt    time.Time                `json:"generated_at"`
}

type QuestionListResponse struct {
	Questions []*models.Question `json:"questions"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	Size      int                `json:"size"`
}

// ===== SUBMISSION RELATED DTOs =====

// AnswerSubmission is one answered question as it was presented
type AnswerSubmission struct {
	QuestionID uint                     `json:"question_id" validate:"required"`
	Section    models.AssessmentSection `json:"section" validate:"required,assessment_section"`
	Answer     string                   `json:"answer"`
	Options    []string                 `json:"options"`
}

type SubmitAssessmentRequest struct {
	AssessmentType models.AssessmentType `json:"assessment_type" validate:"required,assessment_type"`
	StartedAt      time.Time             `json:"started_at" validate:"required"`
	CompletedAt    time.Time             `json:"completed_at" validate:"required"`
	Answers        []AnswerSubmission    `json:"answers" validate:"required,min=1,dive"`
	PassingScore   int                   `json:"passing_score" validate:"omitempty,min=1,max=100"`
}

// RequestMeta carries request-level metadata recorded on the submission
type RequestMeta struct {
	ClientIP  string
	UserAgent string
}

type SubmissionResult struct {
	SubmissionID       uint                                                   `json:"submission_id"`
	AssessmentType     models.AssessmentType                                  `json:"assessment_type"`
	TotalQuestions     int                                                    `json:"total_questions"`
	CorrectAnswers     int                                                    `json:"correct_answers"`
	ScorePercentage    int                                                    `json:"score_percentage"`
	Passed             bool                                                   `json:"passed"`
	Grade              string                                                 `json:"grade"`
	SectionPerformance map[models.AssessmentSection]models.SectionPerformance `json:"section_performance"`
	StatusBefore       models.RoleStatusPair                                  `json:"status_before"`
	StatusAfter        models.RoleStatusPair                                  `json:"status_after"`
	AttemptNumber      int                                                    `json:"attempt_number"`
	IsRetake           bool                                                   `json:"is_retake"`
	TimeSpentMinutes   int                                                    `json:"time_spent_minutes"`
	TimeSpentFormatted string                                                 `json:"time_spent_formatted"`
	CompletedAt        time.Time                                              `json:"completed_at"`
	NextRetakeTime     *time.Time                                             `json:"next_retake_time,omitempty"`
}

// ===== SCORING RELATED DTOs =====

// ScoringResult carries the full grading outcome for one answer set.
// CorrectAnswers accumulates question points while TotalQuestions counts
// submitted answers; ScorePercentage is derived from that pair.
type ScoringResult struct {
	TotalQuestions     int                                                    `json:"total_questions"`
	CorrectAnswers     int                                                    `json:"correct_answers"`
	ScorePercentage    int                                                    `json:"score_percentage"`
	Passed             bool                                                   `json:"passed"`
	Grade              string                                                 `json:"grade"`
	SectionPerformance map[models.AssessmentSection]models.SectionPerformance `json:"section_performance"`
	Snapshots          []models.QuestionSnapshot                              `json:"snapshots"`
}

// ===== HISTORY RELATED DTOs =====

type HistoryResponse struct {
	Submissions []*SubmissionSummary `json:"submissions"`
	Total       int64                `json:"total"`
	Page        int                  `json:"page"`
	Size        int                  `json:"size"`
	BestScore   *int                 `json:"best_score,omitempty"`
	LastAttempt *time.Time           `json:"last_attempt,omitempty"`
}

// SubmissionSummary is the compact history row without question snapshots
type SubmissionSummary struct {
	ID               uint                  `json:"id"`
	AssessmentType   models.AssessmentType `json:"assessment_type"`
	ScorePercentage  int                   `json:"score_percentage"`
	Grade            string                `json:"grade"`
	Passed           bool                  `json:"passed"`
	AttemptNumber    int                   `json:"attempt_number"`
	IsRetake         bool                  `json:"is_retake"`
	TimeSpentMinutes int                   `json:"time_spent_minutes"`
	CompletedAt      time.Time             `json:"completed_at"`
	FlaggedForReview bool                  `json:"flagged_for_review"`
}

type EligibilityResponse struct {
	AssessmentType models.AssessmentType `json:"assessment_type"`
	Eligible       bool                  `json:"eligible"`
	Reason         string                `json:"reason,omitempty"`
	NextRetakeTime *time.Time            `json:"next_retake_time,omitempty"`
	AttemptsUsed   int                   `json:"attempts_used"`
	BestScore      *int                  `json:"best_score,omitempty"`
	HasPassed      bool                  `json:"has_passed"`
}

// ===== REVIEW RELATED DTOs =====

type ReviewRequest struct {
	Notes string `json:"notes" validate:"required,min=1,max=2000"`
}

type FlagRequest struct {
	Flagged bool    `json:"flagged"`
	Reason  *string `json:"reason" validate:"omitempty,max=1000"`
}

// ===== NOTIFICATION RELATED DTOs =====

type NotificationRequest struct {
	Type     models.NotificationType     `json:"type" validate:"required"`
	Title    string                      `json:"title" validate:"required,max=200"`
	Message  string                      `json:"message" validate:"required,max=2000"`
	Priority models.NotificationPriority `json:"priority"`
	Metadata map[string]interface{}      `json:"metadata,omitempty"`
}

// ===== SERVICE INTERFACES =====

type QuestionService interface {
	// Candidate-facing: build a randomized question set with answers stripped
	GetAssessmentQuestions(ctx context.Context, req *AssessmentQuestionsRequest) (*AssessmentQuestionsResponse, error)

	// Admin question bank management
	CreateQuestion(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*models.Question, error)
	UpdateQuestion(ctx context.Context, id uint, req *UpdateQuestionRequest, updaterID string) (*models.Question, error)
	DeactivateQuestion(ctx context.Context, id uint, updaterID string) error
	GetQuestion(ctx context.Context, id uint) (*models.Question, error)
	ListQuestions(ctx context.Context, filters repositories.QuestionFilters) (*QuestionListResponse, error)
	GetSectionCounts(ctx context.Context) ([]repositories.SectionQuestionCount, error)
}

type ScoringService interface {
	// Score grades a full answer set against the active question bank.
	// Fails the whole submission when any answer references a missing or
	// inactive question or mismatches its section.
	Score(ctx context.Context, tx *gorm.DB, answers []AnswerSubmission, passingScore int) (*ScoringResult, error)

	// CalculateLetterGrade maps a percentage to a letter grade
	CalculateLetterGrade(percentage int) string
}

type SubmissionService interface {
	// Submit runs the full submission pipeline: user lookup, retake gate,
	// history, scoring, status transition, persistence and post-commit events
	Submit(ctx context.Context, userID string, req *SubmitAssessmentRequest, meta RequestMeta) (*SubmissionResult, error)

	// GetSubmission retrieves a single submission with ownership checks
	GetSubmission(ctx context.Context, id uint, requesterID string, requesterRole models.UserRole) (*models.AssessmentSubmission, error)
}

type HistoryService interface {
	// GetHistory returns a user's paginated submission history
	GetHistory(ctx context.Context, userID string, filters repositories.SubmissionFilters) (*HistoryResponse, error)

	// GetEligibility answers whether the user can take an assessment now
	GetEligibility(ctx context.Context, userID string, assessmentType models.AssessmentType) (*EligibilityResponse, error)

	// GetStats aggregates the user's attempts per assessment type
	GetStats(ctx context.Context, userID string) ([]repositories.TypeStats, error)
}

type ReviewService interface {
	// ReviewSubmission records reviewer notes on a submission
	ReviewSubmission(ctx context.Context, id uint, req *ReviewRequest, reviewerID string) (*models.AssessmentSubmission, error)

	// FlagSubmission toggles the manual review flag
	FlagSubmission(ctx context.Context, id uint, req *FlagRequest, reviewerID string) (*models.AssessmentSubmission, error)
}

type NotificationEventService interface {
	// PublishAssessmentSubmitted emits the submission event
	PublishAssessmentSubmitted(ctx context.Context, submission *models.AssessmentSubmission) error

	// PublishStatusChanged emits the role status change event
	PublishStatusChanged(ctx context.Context, userID string, after models.RoleStatusPair, submissionID uint) error

	// SendResultNotification emits an in-app notification with the outcome
	SendResultNotification(ctx context.Context, user *models.User, result *SubmissionResult) error

	// SendNotification emits a generic notification event
	SendNotification(ctx context.Context, userID string, notification *NotificationRequest) error
}

type EmailService interface {
	// SendResultEmail renders the result email and emits it as an event
	SendResultEmail(ctx context.Context, user *models.User, result *SubmissionResult) error
}

type ExportService interface {
	// ExportSubmissions builds an xlsx workbook of submission records
	ExportSubmissions(ctx context.Context, filters repositories.SubmissionFilters) ([]byte, error)
}

// ServiceManager provides access to all services
type ServiceManager interface {
	Question() QuestionService
	Scoring() ScoringService
	Submission() SubmissionService
	History() HistoryService
	Review() ReviewService
	Notification() NotificationEventService
	Email() EmailService
	Export() ExportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Close() error
}
