package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type AssessmentType string

const (
	TypeAnnotatorQualification AssessmentType = "annotator_qualification"
	TypeSkillAssessment        AssessmentType = "skill_assessment"
	TypeProjectSpecific        AssessmentType = "project_specific"
)

// IsValidAssessmentType reports whether t is a known assessment type.
func IsValidAssessmentType(t AssessmentType) bool {
	switch t {
	case TypeAnnotatorQualification, TypeSkillAssessment, TypeProjectSpecific:
		return true
	}
	return false
}

const DefaultPassingScore = 60

// AssessmentSubmission is the immutable log of one scored attempt.
// Scoring fields are written exactly once at submission time; only the
// review overlay fields may change afterwards.
type AssessmentSubmission struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	UserID         string         `json:"user_id" gorm:"not null;index;size:255" validate:"required"`
	AssessmentType AssessmentType `json:"assessment_type" gorm:"not null;index" validate:"required,assessment_type"`

	// Scoring. CorrectAnswers is a point sum while TotalQuestions is an
	// answer count; ScorePercentage = round(100 * CorrectAnswers / TotalQuestions).
	TotalQuestions  int  `json:"total_questions" gorm:"not null"`
	CorrectAnswers  int  `json:"correct_answers" gorm:"not null"`
	ScorePercentage int  `json:"score_percentage" gorm:"not null"`
	Passed          bool `json:"passed" gorm:"index"`
	PassingScore    int  `json:"passing_score" gorm:"default:60"`

	// Timing
	StartedAt        time.Time `json:"started_at" gorm:"not null"`
	CompletedAt      time.Time `json:"completed_at" gorm:"not null"`
	TimeSpentMinutes int       `json:"time_spent_minutes"`

	// Content snapshot: frozen copy of each question as presented,
	// decoupled from future edits to the question bank ([]QuestionSnapshot)
	Questions datatypes.JSON `json:"questions" gorm:"type:jsonb"`

	// Section performance breakdown (map[AssessmentSection]SectionPerformance)
	SectionPerformance datatypes.JSON `json:"section_performance" gorm:"type:jsonb"`

	// Role-status transition caused by this attempt (RoleStatusPair each)
	StatusBefore datatypes.JSON `json:"status_before_assessment" gorm:"type:jsonb"`
	StatusAfter  datatypes.JSON `json:"status_after_assessment" gorm:"type:jsonb"`

	// Retake metadata
	AttemptNumber    int            `json:"attempt_number" gorm:"not null;default:1"`
	IsRetake         bool           `json:"is_retake"`
	PreviousAttempts datatypes.JSON `json:"previous_attempts" gorm:"type:jsonb"` // []AttemptSummary

	// Review overlay, written by administrative flows only
	ReviewedBy       *string    `json:"reviewed_by" gorm:"size:255"`
	ReviewedAt       *time.Time `json:"reviewed_at"`
	ReviewNotes      *string    `json:"review_notes" gorm:"type:text"`
	FlaggedForReview bool       `json:"flagged_for_review" gorm:"index"`
	FlagReason       *string    `json:"flag_reason" gorm:"type:text"`

	// Request metadata
	ClientIP  *string `json:"client_ip" gorm:"size:45"`
	UserAgent *string `json:"user_agent" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (AssessmentSubmission) TableName() string {
	return "assessment_submissions"
}

// QuestionSnapshot is a frozen copy of a question as presented, plus the
// candidate's answer and its grading outcome.
type QuestionSnapshot struct {
	QuestionID    uint              `json:"question_id"`
	Section       AssessmentSection `json:"section"`
	Text          string            `json:"text"`
	Options       []OptionSnapshot  `json:"options"`
	UserAnswer    string            `json:"user_answer"`
	CorrectAnswer string            `json:"correct_answer"`
	IsCorrect     bool              `json:"is_correct"`
	PointsAwarded int               `json:"points_awarded"`
	MaxPoints     int               `json:"max_points"`
}

// OptionSnapshot echoes an option back with a generated identifier and a
// correctness flag. Presentation metadata only, not used by scoring.
type OptionSnapshot struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// SectionPerformance is the per-section correct/total breakdown.
// Counts answers, not points.
type SectionPerformance struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// AttemptSummary is the denormalized prior-attempt record stored on each
// submission for quick historical display.
type AttemptSummary struct {
	Date   time.Time `json:"date"`
	Score  int       `json:"score"`
	Passed bool      `json:"passed"`
}

// QuestionSnapshots decodes the JSONB question snapshot column.
func (s *AssessmentSubmission) QuestionSnapshots() ([]QuestionSnapshot, error) {
	var snapshots []QuestionSnapshot
	if len(s.Questions) == 0 {
		return snapshots, nil
	}
	if err := json.Unmarshal(s.Questions, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// StatusBeforePair decodes the status-before JSONB column.
func (s *AssessmentSubmission) StatusBeforePair() (RoleStatusPair, error) {
	var pair RoleStatusPair
	if len(s.StatusBefore) == 0 {
		return pair, nil
	}
	err := json.Unmarshal(s.StatusBefore, &pair)
	return pair, err
}

// StatusAfterPair decodes the status-after JSONB column.
func (s *AssessmentSubmission) StatusAfterPair() (RoleStatusPair, error) {
	var pair RoleStatusPair
	if len(s.StatusAfter) == 0 {
		return pair, nil
	}
	err := json.Unmarshal(s.StatusAfter, &pair)
	return pair, err
}

// PreviousAttemptSummaries decodes the previous-attempts JSONB column.
func (s *AssessmentSubmission) PreviousAttemptSummaries() ([]AttemptSummary, error) {
	var summaries []AttemptSummary
	if len(s.PreviousAttempts) == 0 {
		return summaries, nil
	}
	if err := json.Unmarshal(s.PreviousAttempts, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}
