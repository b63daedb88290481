package validator

import (
	"github.com/annolab/assessment-service/internal/models"
)

// QuestionCreateRequest represents the request structure for creating questions
type QuestionCreateRequest struct {
	Section       models.AssessmentSection `json:"section" validate:"required,assessment_section"`
	Text          string                   `json:"text" validate:"required,min=1,max=2000"`
	Options       []string                 `json:"options" validate:"required,min=2,max=10,dive,max=500"`
	CorrectAnswer string                   `json:"correct_answer" validate:"required,max=500"`
	Points        int                      `json:"points" validate:"required,min=1,max=100"`
}

// QuestionUpdateRequest represents the request structure for updating questions
type QuestionUpdateRequest struct {
	Section       *models.AssessmentSection `json:"section" validate:"omitempty,assessment_section"`
	Text          *string                   `json:"text" validate:"omitempty,min=1,max=2000"`
	Options       []string                  `json:"options" validate:"omitempty,min=2,max=10,dive,max=500"`
	CorrectAnswer *string                   `json:"correct_answer" validate:"omitempty,max=500"`
	Points        *int                      `json:"points" validate:"omitempty,min=1,max=100"`
	IsActive      *bool                     `json:"is_active"`
}
