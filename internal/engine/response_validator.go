package engine

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
)

const (
	MsgRequired       = "This field is required."
	MsgInvalidNumber  = "Please enter a valid number."
	MsgInvalidOption  = "Please select a valid option."
	MsgInvalidOptions = "Please select valid options."
	MsgInvalidText    = "Please enter a text answer."
	MsgInvalidEmail   = "Please enter a valid email address."
	MsgInvalidURL     = "Please enter a valid URL."
	MsgInvalidFile    = "Please upload a file."
	MsgUnsupported    = "This question type is not supported."
)

// Errors maps question ids to user-facing messages.
type Errors map[string]string

func (e Errors) HasErrors() bool {
	return len(e) > 0
}

// typeValidator checks a non-empty answer against the rules of its variant and
// returns a message, or "" when the answer is acceptable.
type typeValidator func(q *models.Question, value models.ResponseValue) string

var typeValidators = map[models.QuestionType]typeValidator{
	models.SingleChoice: validateSingleChoice,
	models.MultiChoice:  validateMultiChoice,
	models.ShortText:    validateText,
	models.LongText:     validateText,
	models.Numeric:      validateNumeric,
	models.FileUpload:   validateFile,
}

// formats backs the email and url checks.
var formats = validator.New()

// IsAnswered is the completion predicate: the value is neither missing, an
// empty string nor an empty list. It does not imply the answer is valid.
func IsAnswered(value models.ResponseValue) bool {
	return !value.IsEmpty()
}

// ValidateOne validates a single answer. required is the effective required
// flag from the conditional state. It returns "" when the answer passes.
func ValidateOne(q *models.Question, value models.ResponseValue, required bool) string {
	if value.IsEmpty() {
		if required {
			return ruleMessage(q, models.RuleRequired, MsgRequired)
		}
		return ""
	}

	check, ok := typeValidators[q.Type]
	if !ok {
		return MsgUnsupported
	}
	return check(q, value)
}

// ValidateAll validates every visible question of the assessment.
func ValidateAll(assessment *models.Assessment, responses models.Responses, states ConditionalState) Errors {
	errs := Errors{}
	for si := range assessment.Sections {
		validateQuestions(assessment.Sections[si].Questions, responses, states, errs)
	}
	return errs
}

// ValidateSection validates the visible questions of one section.
func ValidateSection(section *models.Section, responses models.Responses, states ConditionalState) Errors {
	errs := Errors{}
	validateQuestions(section.Questions, responses, states, errs)
	return errs
}

func validateQuestions(questions []models.Question, responses models.Responses, states ConditionalState, errs Errors) {
	for i := range questions {
		q := &questions[i]
		st, known := states[q.ID]
		if known && !st.Visible {
			continue
		}
		required := q.StaticallyRequired()
		if known {
			required = st.Required
		}
		if msg := ValidateOne(q, responses[q.ID], required); msg != "" {
			errs[q.ID] = msg
		}
	}
}

func validateSingleChoice(q *models.Question, value models.ResponseValue) string {
	selected, ok := value.Scalar()
	if !ok || value.Kind() != models.KindText || !q.HasOption(selected) {
		return MsgInvalidOption
	}
	return ""
}

func validateMultiChoice(q *models.Question, value models.ResponseValue) string {
	if value.Kind() == models.KindFile {
		return MsgInvalidOptions
	}
	for _, selected := range value.Strings() {
		if !q.HasOption(selected) {
			return MsgInvalidOptions
		}
	}
	return ""
}

func validateText(q *models.Question, value models.ResponseValue) string {
	if value.Kind() != models.KindText {
		return MsgInvalidText
	}
	length := utf8.RuneCountInString(value.Text)

	for _, rule := range q.Validation {
		switch rule.Type {
		case models.RuleMinLength:
			if n, ok := rule.IntValue(); ok && length < n {
				return messageOr(rule, fmt.Sprintf("Must be at least %d characters.", n))
			}
		case models.RuleMaxLength:
			if n, ok := rule.IntValue(); ok && length > n {
				return messageOr(rule, fmt.Sprintf("Must be at most %d characters.", n))
			}
		case models.RuleEmail:
			if formats.Var(strings.TrimSpace(value.Text), "email") != nil {
				return messageOr(rule, MsgInvalidEmail)
			}
		case models.RuleURL:
			if formats.Var(strings.TrimSpace(value.Text), "url") != nil {
				return messageOr(rule, MsgInvalidURL)
			}
		}
	}
	return ""
}

func validateNumeric(q *models.Question, value models.ResponseValue) string {
	if value.Kind() != models.KindText {
		return MsgInvalidNumber
	}
	n, err := parseNumber(value.Text)
	if err != nil {
		return MsgInvalidNumber
	}

	rule, ok := q.Rule(models.RuleNumericRange)
	if !ok {
		return ""
	}
	bounds, ok := rule.RangeValue()
	if !ok {
		return ""
	}
	if bounds.Min != nil && n < *bounds.Min {
		return messageOr(rule, "Value must be at least "+formatNumber(*bounds.Min)+".")
	}
	if bounds.Max != nil && n > *bounds.Max {
		return messageOr(rule, "Value must be at most "+formatNumber(*bounds.Max)+".")
	}
	return ""
}

func validateFile(_ *models.Question, value models.ResponseValue) string {
	if value.Kind() != models.KindFile || strings.TrimSpace(value.File.Name) == "" {
		return MsgInvalidFile
	}
	return ""
}

func ruleMessage(q *models.Question, t models.ValidationRuleType, fallback string) string {
	if rule, ok := q.Rule(t); ok {
		return messageOr(rule, fallback)
	}
	return fallback
}

func messageOr(rule models.ValidationRule, fallback string) string {
	if rule.Message != "" {
		return rule.Message
	}
	return fallback
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
