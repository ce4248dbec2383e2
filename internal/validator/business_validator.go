package validator

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/exam-assembly-service/internal/models"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateAssemblyRequest validates an assemble or questions-only request
func (bv *BusinessValidator) ValidateAssemblyRequest(req *AssemblyRequest) ValidationErrors {
	return bv.Validate(req)
}

// ValidateAnswersRequest validates a single-question answers request
func (bv *BusinessValidator) ValidateAnswersRequest(req *AnswersRequest) ValidationErrors {
	return bv.Validate(req)
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// question type validation
	bv.validate.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		qType := models.QuestionType(fl.Field().String())
		for _, vt := range models.QuestionTypes {
			if qType == vt {
				return true
			}
		}
		return false
	})

	// Test and question ids (1-64 characters, no whitespace)
	bv.validate.RegisterValidation("entity_id", func(fl validator.FieldLevel) bool {
		id := fl.Field().String()
		if len(id) == 0 || len(id) > 64 {
			return false
		}
		return strings.IndexFunc(id, unicode.IsSpace) < 0
	})

	bv.validate.RegisterValidation("log_level", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "debug", "info", "warn", "warning", "error":
			return true
		}
		return false
	})
}
