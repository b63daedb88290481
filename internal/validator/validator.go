package validator

import (
	"github.com/annolab/assessment-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps struct validation and business rule validation
type Validator struct {
	validate *validator.Validate
	business *BusinessValidator
}

// New creates a validator with all custom rules registered
func New() *Validator {
	validate := validator.New()
	registerCustomRules(validate)

	return &Validator{
		validate: validate,
		business: NewBusinessValidator(),
	}
}

// Validate performs struct tag validation
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return err
	}
	return nil
}

// GetBusinessValidator returns the business rule validator
func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}

// registerCustomRules registers domain enum validators
func registerCustomRules(validate *validator.Validate) {
	validate.RegisterValidation("assessment_type", func(fl validator.FieldLevel) bool {
		return models.IsValidAssessmentType(models.AssessmentType(fl.Field().String()))
	})

	validate.RegisterValidation("assessment_section", func(fl validator.FieldLevel) bool {
		return models.IsValidSection(models.AssessmentSection(fl.Field().String()))
	})

	validate.RegisterValidation("role_status", func(fl validator.FieldLevel) bool {
		return models.IsValidRoleStatus(models.RoleStatus(fl.Field().String()))
	})
}
