package validator

import (
	"fmt"
	"strings"

	"github.com/annolab/assessment-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// ValidationError represents a business validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()
	registerCustomRules(validate)

	return &BusinessValidator{validate: validate}
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	var errors ValidationErrors

	err := bv.validate.Struct(s)
	if err != nil {
		for _, err := range err.(validator.ValidationErrors) {
			errors = append(errors, ValidationError{
				Field:   err.Field(),
				Message: bv.getErrorMessage(err),
				Value:   err.Value(),
				Rule:    err.Tag(),
			})
		}
	}

	return errors
}

// ValidateQuestionCreate validates question creation business rules
func (bv *BusinessValidator) ValidateQuestionCreate(req *QuestionCreateRequest) ValidationErrors {
	var errors ValidationErrors

	// Basic struct validation
	errors = append(errors, bv.Validate(req)...)

	// Question-specific business validations
	errors = append(errors, bv.validateQuestionRules(req.Options, req.CorrectAnswer)...)

	return errors
}

// ValidateQuestionUpdate validates question update business rules
func (bv *BusinessValidator) ValidateQuestionUpdate(req *QuestionUpdateRequest, existing *models.Question) ValidationErrors {
	var errors ValidationErrors

	// Basic struct validation
	errors = append(errors, bv.Validate(req)...)

	// Resolve the effective options and answer after the update
	options := req.Options
	if options == nil {
		existingOptions, err := existing.OptionList()
		if err == nil {
			options = existingOptions
		}
	}
	answer := existing.CorrectAnswer
	if req.CorrectAnswer != nil {
		answer = *req.CorrectAnswer
	}

	errors = append(errors, bv.validateQuestionRules(options, answer)...)

	return errors
}

// validateQuestionRules checks the option set and answer consistency
func (bv *BusinessValidator) validateQuestionRules(options []string, correctAnswer string) ValidationErrors {
	var errors ValidationErrors

	if len(options) < 2 {
		errors = append(errors, ValidationError{
			Field:   "options",
			Message: "must contain at least 2 options",
			Value:   len(options),
			Rule:    "business_logic",
		})
		return errors
	}

	seen := make(map[string]bool, len(options))
	for i, option := range options {
		trimmed := strings.TrimSpace(option)
		if trimmed == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("options[%d]", i),
				Message: "option cannot be empty",
				Value:   option,
				Rule:    "business_logic",
			})
			continue
		}
		normalized := strings.ToLower(trimmed)
		if seen[normalized] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("options[%d]", i),
				Message: "option is duplicated",
				Value:   option,
				Rule:    "business_logic",
			})
		}
		seen[normalized] = true
	}

	// Correct answer must match one of the options ignoring case and whitespace
	normalizedAnswer := strings.ToLower(strings.TrimSpace(correctAnswer))
	if normalizedAnswer != "" && !seen[normalizedAnswer] {
		errors = append(errors, ValidationError{
			Field:   "correct_answer",
			Message: "must match one of the options",
			Value:   correctAnswer,
			Rule:    "business_logic",
		})
	}

	return errors
}

// getErrorMessage returns user-friendly error messages
func (bv *BusinessValidator) getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "assessment_type":
		return "must be a valid assessment type"
	case "assessment_section":
		return "must be a valid assessment section"
	case "role_status":
		return "must be a valid role status"
	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}
