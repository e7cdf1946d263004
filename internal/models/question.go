package models

import (
	"fmt"
	"math"
	"strconv"
)

type QuestionType string

const (
	SingleChoice QuestionType = "single-choice"
	MultiChoice  QuestionType = "multi-choice"
	ShortText    QuestionType = "short-text"
	LongText     QuestionType = "long-text"
	Numeric      QuestionType = "numeric"
	FileUpload   QuestionType = "file-upload"
)

// QuestionTypes lists every question variant. Code that maps behaviour per
// variant is checked against this list in tests.
var QuestionTypes = []QuestionType{SingleChoice, MultiChoice, ShortText, LongText, Numeric, FileUpload}

func (t QuestionType) IsValid() bool {
	for _, qt := range QuestionTypes {
		if t == qt {
			return true
		}
	}
	return false
}

func (t QuestionType) IsChoice() bool {
	return t == SingleChoice || t == MultiChoice
}

func (t QuestionType) IsText() bool {
	return t == ShortText || t == LongText
}

type ValidationRuleType string

const (
	RuleRequired     ValidationRuleType = "required"
	RuleMinLength    ValidationRuleType = "min-length"
	RuleMaxLength    ValidationRuleType = "max-length"
	RuleNumericRange ValidationRuleType = "numeric-range"
	RuleEmail        ValidationRuleType = "email"
	RuleURL          ValidationRuleType = "url"
)

type ConditionOperator string

const (
	ConditionEquals      ConditionOperator = "equals"
	ConditionNotEquals   ConditionOperator = "not-equals"
	ConditionContains    ConditionOperator = "contains"
	ConditionGreaterThan ConditionOperator = "greater-than"
	ConditionLessThan    ConditionOperator = "less-than"
)

type RuleAction string

const (
	ActionShow    RuleAction = "show"
	ActionHide    RuleAction = "hide"
	ActionRequire RuleAction = "require"
)

type Question struct {
	ID               string            `json:"id" validate:"required,max=100"`
	Order            int               `json:"order" validate:"min=0"`
	Type             QuestionType      `json:"type" validate:"required,question_type"`
	Title            string            `json:"title" validate:"required,max=500"`
	Description      *string           `json:"description,omitempty" validate:"omitempty,max=2000"`
	Required         bool              `json:"required"`
	Options          []Option          `json:"options,omitempty" validate:"omitempty,dive"`
	Validation       []ValidationRule  `json:"validation,omitempty" validate:"omitempty,dive"`
	ConditionalLogic []ConditionalRule `json:"conditionalLogic,omitempty" validate:"omitempty,dive"`
}

type Option struct {
	ID    string `json:"id" validate:"required"`
	Text  string `json:"text" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// HasOption reports whether value matches the value of one of the question's options.
func (q *Question) HasOption(value string) bool {
	for _, o := range q.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// Rule returns the first validation rule of the given type.
func (q *Question) Rule(t ValidationRuleType) (ValidationRule, bool) {
	for _, r := range q.Validation {
		if r.Type == t {
			return r, true
		}
	}
	return ValidationRule{}, false
}

// StartsHidden is true when at least one conditional rule uses the show action;
// such questions must be revealed explicitly.
func (q *Question) StartsHidden() bool {
	for _, r := range q.ConditionalLogic {
		if r.Action == ActionShow {
			return true
		}
	}
	return false
}

// StaticallyRequired merges the required flag with a "required" validation rule.
func (q *Question) StaticallyRequired() bool {
	if q.Required {
		return true
	}
	_, ok := q.Rule(RuleRequired)
	return ok
}

type ValidationRule struct {
	Type    ValidationRuleType `json:"type" validate:"required,oneof=required min-length max-length numeric-range email url"`
	Value   any                `json:"value,omitempty"`
	Message string             `json:"message,omitempty" validate:"omitempty,max=500"`
}

type NumericRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// IntValue returns the rule operand of a length rule. JSON decoding yields
// float64, Go literals yield int; both are accepted when they hold a whole number.
func (r ValidationRule) IntValue() (int, bool) {
	f, ok := toFloat(r.Value)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// RangeValue returns the {min,max} operand of a numeric-range rule.
func (r ValidationRule) RangeValue() (NumericRange, bool) {
	switch v := r.Value.(type) {
	case NumericRange:
		return v, true
	case *NumericRange:
		if v == nil {
			return NumericRange{}, false
		}
		return *v, true
	case map[string]any:
		var nr NumericRange
		if raw, ok := v["min"]; ok && raw != nil {
			f, ok := toFloat(raw)
			if !ok {
				return NumericRange{}, false
			}
			nr.Min = &f
		}
		if raw, ok := v["max"]; ok && raw != nil {
			f, ok := toFloat(raw)
			if !ok {
				return NumericRange{}, false
			}
			nr.Max = &f
		}
		return nr, true
	}
	return NumericRange{}, false
}

type ConditionalRule struct {
	DependsOnQuestionID string            `json:"dependsOnQuestionId" validate:"required"`
	Condition           ConditionOperator `json:"condition" validate:"required,oneof=equals not-equals contains greater-than less-than"`
	Value               any               `json:"value"`
	Action              RuleAction        `json:"action" validate:"required,oneof=show hide require"`
}

// OperandStrings flattens the rule operand to its string form. Arrays yield
// one entry per element; scalars a single entry.
func (r ConditionalRule) OperandStrings() ([]string, bool) {
	switch v := r.Value.(type) {
	case nil:
		return nil, false
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, scalarString(item))
		}
		return out, true
	default:
		return []string{scalarString(v)}, false
	}
}

// NumericOperand returns the operand of a greater-than/less-than rule.
func (r ConditionalRule) NumericOperand() (float64, bool) {
	return toFloat(r.Value)
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}
