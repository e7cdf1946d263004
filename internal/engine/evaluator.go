// Package engine derives the dynamic state of an assessment form: which
// questions are visible and required for a given response set, which answers
// fail their validation rules, and how complete each section is.
//
// Every function here is a pure function of its inputs. Nothing is cached
// between calls.
package engine

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
)

// QuestionState is the derived visibility and required flag of one question.
type QuestionState struct {
	Visible  bool `json:"visible"`
	Required bool `json:"required"`
}

// ConditionalState maps question ids to their derived state.
type ConditionalState map[string]QuestionState

// IsVisible treats unknown questions as visible.
func (cs ConditionalState) IsVisible(questionID string) bool {
	st, ok := cs[questionID]
	return !ok || st.Visible
}

// Hidden returns the ids of questions that are not visible.
func (cs ConditionalState) Hidden() []string {
	var out []string
	for id, st := range cs {
		if !st.Visible {
			out = append(out, id)
		}
	}
	return out
}

// Evaluate computes the conditional state of every question in the assessment.
//
// Questions are resolved in ascending global order. Rules may only depend on
// questions with a lower order, so the state of a dependency is final by the
// time a dependant is evaluated. The answer of a dependency that ended up
// hidden is ignored, which makes the result stable under pruning of hidden
// answers.
func Evaluate(assessment *models.Assessment, responses models.Responses) ConditionalState {
	states := make(ConditionalState, assessment.QuestionCount())

	for _, q := range assessment.QuestionsByOrder() {
		baseVisible := !q.StartsHidden()
		shown, hidden := false, false
		required := q.StaticallyRequired()

		for _, rule := range q.ConditionalLogic {
			value, answered := dependencyValue(states, responses, rule.DependsOnQuestionID)
			if !answered || !ruleSatisfied(rule, value) {
				continue
			}
			switch rule.Action {
			case models.ActionShow:
				shown = true
			case models.ActionHide:
				hidden = true
			case models.ActionRequire:
				required = true
			}
		}

		visible := (baseVisible || shown) && !hidden
		states[q.ID] = QuestionState{
			Visible:  visible,
			Required: visible && required,
		}
	}

	return states
}

func dependencyValue(states ConditionalState, responses models.Responses, questionID string) (models.ResponseValue, bool) {
	if st, ok := states[questionID]; ok && !st.Visible {
		return models.ResponseValue{}, false
	}
	v, ok := responses[questionID]
	if !ok || v.IsEmpty() {
		return models.ResponseValue{}, false
	}
	return v, true
}

// ruleSatisfied evaluates a rule's condition against a non-empty answer.
func ruleSatisfied(rule models.ConditionalRule, value models.ResponseValue) bool {
	operands, operandIsList := rule.OperandStrings()
	if len(operands) == 0 && !operandIsList {
		return false
	}

	switch rule.Condition {
	case models.ConditionEquals:
		return valuesEqual(value, operands, operandIsList)
	case models.ConditionNotEquals:
		return !valuesEqual(value, operands, operandIsList)
	case models.ConditionContains:
		return valueContains(value, operands, operandIsList)
	case models.ConditionGreaterThan, models.ConditionLessThan:
		if operandIsList || len(operands) != 1 {
			return false
		}
		left, ok := value.Scalar()
		if !ok {
			return false
		}
		l, errL := parseNumber(left)
		r, errR := parseNumber(operands[0])
		if errL != nil || errR != nil {
			return false
		}
		if rule.Condition == models.ConditionGreaterThan {
			return l > r
		}
		return l < r
	}
	return false
}

func valuesEqual(value models.ResponseValue, operands []string, operandIsList bool) bool {
	if value.Kind() == models.KindList {
		if operandIsList {
			return sameSet(value.List, operands)
		}
		return containsString(value.List, operands[0])
	}

	scalar, _ := value.Scalar()
	if operandIsList {
		for _, op := range operands {
			if scalarEqual(scalar, op) {
				return true
			}
		}
		return false
	}
	return scalarEqual(scalar, operands[0])
}

func valueContains(value models.ResponseValue, operands []string, operandIsList bool) bool {
	if value.Kind() == models.KindList {
		for _, op := range operands {
			if !containsString(value.List, op) {
				return false
			}
		}
		return len(operands) > 0
	}

	scalar, _ := value.Scalar()
	if operandIsList {
		// a scalar answer contains a list operand when it is one of its members
		return containsString(operands, scalar)
	}
	return strings.Contains(scalar, operands[0])
}

func scalarEqual(a, b string) bool {
	if a == b {
		return true
	}
	x, errX := parseNumber(a)
	y, errY := parseNumber(b)
	return errX == nil && errY == nil && x == y
}

func sameSet(a, b []string) bool {
	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[s] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		setB[s] = struct{}{}
	}
	if len(setA) != len(setB) {
		return false
	}
	for s := range setA {
		if _, ok := setB[s]; !ok {
			return false
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// decimalPattern is plain decimal notation with an optional exponent. Hex
// floats, digit separators and NaN/Inf spellings are not numbers here.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !decimalPattern.MatchString(s) {
		return 0, fmt.Errorf("not a decimal number: %q", s)
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return n, nil
}
