package repositories

import (
	"time"

	"github.com/annolab/assessment-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type QuestionFilters struct {
	Section   *models.AssessmentSection `json:"section"`
	IsActive  *bool                     `json:"is_active"`
	CreatedBy *string                   `json:"created_by"`
	Limit     int                       `json:"limit"`
	Offset    int                       `json:"offset"`
	SortBy    string                    `json:"sort_by"`    // "created_at", "section", "points"
	SortOrder string                    `json:"sort_order"` // "asc", "desc"
}

type SubmissionFilters struct {
	AssessmentType *models.AssessmentType `json:"assessment_type"`
	Passed         *bool                  `json:"passed"`
	Flagged        *bool                  `json:"flagged"`
	DateFrom       *time.Time             `json:"date_from"`
	DateTo         *time.Time             `json:"date_to"`
	Limit          int                    `json:"limit"`
	Offset         int                    `json:"offset"`
	SortBy         string                 `json:"sort_by"`
	SortOrder      string                 `json:"sort_order"`
}

// ===== SHARED STATISTICS STRUCTS =====

// TypeStats aggregates a user's attempts for one assessment type
type TypeStats struct {
	AssessmentType models.AssessmentType `json:"assessment_type"`
	TotalAttempts  int                   `json:"total_attempts"`
	BestScore      int                   `json:"best_score"`
	AverageScore   float64               `json:"average_score"`
	Passed         bool                  `json:"passed"`
	LastAttemptAt  *time.Time            `json:"last_attempt_at"`
}

// SectionQuestionCount reports how many active questions exist per section
type SectionQuestionCount struct {
	Section models.AssessmentSection `json:"section"`
	Count   int64                    `json:"count"`
}
