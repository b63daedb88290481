package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type AssessmentSection string

const (
	SectionComprehension AssessmentSection = "Comprehension"
	SectionVocabulary    AssessmentSection = "Vocabulary"
	SectionGrammar       AssessmentSection = "Grammar"
	SectionWriting       AssessmentSection = "Writing"
)

// AllSections returns the fixed section list in canonical order.
func AllSections() []AssessmentSection {
	return []AssessmentSection{
		SectionComprehension,
		SectionVocabulary,
		SectionGrammar,
		SectionWriting,
	}
}

// IsValidSection reports whether s is one of the four fixed sections.
func IsValidSection(s AssessmentSection) bool {
	switch s {
	case SectionComprehension, SectionVocabulary, SectionGrammar, SectionWriting:
		return true
	}
	return false
}

// Question is a single assessment item. Questions are authored by
// administrative tooling and read-only from the submission flow.
type Question struct {
	ID      uint              `json:"id" gorm:"primaryKey"`
	Section AssessmentSection `json:"section" gorm:"not null;index" validate:"required,assessment_section"`
	Text    string            `json:"text" gorm:"type:text;not null" validate:"required"`

	// Options stored as JSONB ([]string), order as authored
	Options       datatypes.JSON `json:"options" gorm:"type:jsonb;not null"`
	CorrectAnswer string         `json:"correct_answer" gorm:"not null" validate:"required"`

	Points   int  `json:"points" gorm:"default:1" validate:"min=1"`
	IsActive bool `json:"is_active" gorm:"default:true;index"`

	CreatedBy string    `json:"created_by" gorm:"index;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "assessment_questions"
}

// OptionList decodes the JSONB options column into a string slice.
func (q *Question) OptionList() ([]string, error) {
	var options []string
	if len(q.Options) == 0 {
		return options, nil
	}
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return nil, err
	}
	return options, nil
}

// SetOptions encodes a string slice into the JSONB options column.
func (q *Question) SetOptions(options []string) error {
	data, err := json.Marshal(options)
	if err != nil {
		return err
	}
	q.Options = data
	return nil
}

// SampledQuestion is a question as presented to a candidate: the correct
// answer is projected out and the option order is shuffled per request.
type SampledQuestion struct {
	ID      uint              `json:"id"`
	Section AssessmentSection `json:"section"`
	Text    string            `json:"text"`
	Options []string          `json:"options"`
	Points  int               `json:"points"`
}
