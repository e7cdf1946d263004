package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/validator"
)

var (
	ErrAssessmentNotFound  = errors.New("assessment not found")
	ErrAssessmentNotActive = errors.New("assessment is not accepting responses")
	ErrAssessmentLocked    = errors.New("assessment definition cannot change once responses exist")

	ErrSessionNotFound = errors.New("session not found")

	ErrResponseNotFound         = errors.New("response not found")
	ErrResponseAlreadySubmitted = errors.New("candidate has already submitted this assessment")
	ErrResponseNotSubmitted     = errors.New("response has not been submitted")

	ErrValidationFailed  = errors.New("validation failed")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// ValidationErrors is returned for request and definition validation failures
type ValidationErrors = validator.ValidationErrors

// BusinessRuleError reports a request that is well formed but not allowed in
// the current state
type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}
