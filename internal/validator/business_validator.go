package validator

import (
	"fmt"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
)

// ValidateDefinition checks an assessment definition before it is stored.
// Beyond the struct tags it enforces identity uniqueness, rule shapes and the
// ordering invariant: orders increase across the whole assessment in document
// order, and a conditional rule may only reference a question with a strictly
// lower order, which keeps the dependency graph acyclic.
func (v *Validator) ValidateDefinition(a *models.Assessment) ValidationErrors {
	var errs ValidationErrors
	errs = append(errs, v.validateStruct(a)...)

	sectionIDs := map[string]bool{}
	for si, s := range a.Sections {
		if sectionIDs[s.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("sections[%d].id", si),
				Message: "duplicate section id",
				Value:   s.ID,
				Rule:    "unique",
			})
		}
		sectionIDs[s.ID] = true
	}

	questions := map[string]*models.Question{}
	orders := map[int]string{}
	prevOrder, seen := 0, false
	for si := range a.Sections {
		for qi := range a.Sections[si].Questions {
			q := &a.Sections[si].Questions[qi]
			path := fmt.Sprintf("sections[%d].questions[%d]", si, qi)

			if _, dup := questions[q.ID]; dup {
				errs = append(errs, ValidationError{Field: path + ".id", Message: "duplicate question id", Value: q.ID, Rule: "unique"})
			} else {
				questions[q.ID] = q
			}
			if other, dup := orders[q.Order]; dup {
				errs = append(errs, ValidationError{
					Field:   path + ".order",
					Message: fmt.Sprintf("order %d already used by question %s", q.Order, other),
					Value:   q.Order,
					Rule:    "unique",
				})
			} else {
				orders[q.Order] = q.ID
				if seen && q.Order < prevOrder {
					errs = append(errs, ValidationError{
						Field:   path + ".order",
						Message: fmt.Sprintf("order must be greater than the preceding order %d", prevOrder),
						Value:   q.Order,
						Rule:    "monotonic",
					})
				}
			}
			if !seen || q.Order > prevOrder {
				prevOrder = q.Order
			}
			seen = true

			errs = append(errs, validateOptions(path, q)...)
			errs = append(errs, validateRules(path, q)...)
		}
	}

	for si := range a.Sections {
		for qi := range a.Sections[si].Questions {
			q := &a.Sections[si].Questions[qi]
			path := fmt.Sprintf("sections[%d].questions[%d]", si, qi)
			errs = append(errs, validateConditionalLogic(path, q, questions)...)
		}
	}

	return errs
}

func validateOptions(path string, q *models.Question) ValidationErrors {
	var errs ValidationErrors
	if q.Type.IsChoice() && len(q.Options) == 0 {
		errs = append(errs, ValidationError{
			Field:   path + ".options",
			Message: "choice questions need at least one option",
			Rule:    "min",
		})
	}

	ids := map[string]bool{}
	values := map[string]bool{}
	for oi, o := range q.Options {
		if ids[o.ID] {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("%s.options[%d].id", path, oi), Message: "duplicate option id", Value: o.ID, Rule: "unique"})
		}
		if values[o.Value] {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("%s.options[%d].value", path, oi), Message: "duplicate option value", Value: o.Value, Rule: "unique"})
		}
		ids[o.ID] = true
		values[o.Value] = true
	}
	return errs
}

func validateRules(path string, q *models.Question) ValidationErrors {
	var errs ValidationErrors
	for ri, rule := range q.Validation {
		field := fmt.Sprintf("%s.validation[%d]", path, ri)
		switch rule.Type {
		case models.RuleMinLength, models.RuleMaxLength:
			if !q.Type.IsText() {
				errs = append(errs, ruleNotApplicable(field, rule, q.Type))
				continue
			}
			if n, ok := rule.IntValue(); !ok || n < 0 {
				errs = append(errs, ValidationError{Field: field + ".value", Message: "must be a non-negative integer", Value: rule.Value, Rule: string(rule.Type)})
			}
		case models.RuleEmail, models.RuleURL:
			if !q.Type.IsText() {
				errs = append(errs, ruleNotApplicable(field, rule, q.Type))
			}
		case models.RuleNumericRange:
			if q.Type != models.Numeric {
				errs = append(errs, ruleNotApplicable(field, rule, q.Type))
				continue
			}
			bounds, ok := rule.RangeValue()
			switch {
			case !ok:
				errs = append(errs, ValidationError{Field: field + ".value", Message: "must be an object with numeric min and/or max", Value: rule.Value, Rule: string(rule.Type)})
			case bounds.Min != nil && bounds.Max != nil && *bounds.Min > *bounds.Max:
				errs = append(errs, ValidationError{Field: field + ".value", Message: "min must not exceed max", Value: rule.Value, Rule: string(rule.Type)})
			}
		}
	}
	return errs
}

func ruleNotApplicable(field string, rule models.ValidationRule, t models.QuestionType) ValidationError {
	return ValidationError{
		Field:   field + ".type",
		Message: fmt.Sprintf("rule %s does not apply to %s questions", rule.Type, t),
		Value:   rule.Type,
		Rule:    "business_logic",
	}
}

func validateConditionalLogic(path string, q *models.Question, questions map[string]*models.Question) ValidationErrors {
	var errs ValidationErrors
	for ri, rule := range q.ConditionalLogic {
		field := fmt.Sprintf("%s.conditionalLogic[%d]", path, ri)

		dep, ok := questions[rule.DependsOnQuestionID]
		switch {
		case rule.DependsOnQuestionID == "":
			// reported by the struct tags
		case !ok:
			errs = append(errs, ValidationError{Field: field + ".dependsOnQuestionId", Message: "references an unknown question", Value: rule.DependsOnQuestionID, Rule: "exists"})
		case dep.Order >= q.Order:
			errs = append(errs, ValidationError{
				Field:   field + ".dependsOnQuestionId",
				Message: fmt.Sprintf("must reference a question with order lower than %d", q.Order),
				Value:   rule.DependsOnQuestionID,
				Rule:    "order",
			})
		}

		operands, isList := rule.OperandStrings()
		if operands == nil && !isList {
			errs = append(errs, ValidationError{Field: field + ".value", Message: "is required", Rule: "required"})
			continue
		}
		if rule.Condition == models.ConditionGreaterThan || rule.Condition == models.ConditionLessThan {
			if _, numeric := rule.NumericOperand(); !numeric {
				errs = append(errs, ValidationError{Field: field + ".value", Message: "must be a number", Value: rule.Value, Rule: string(rule.Condition)})
			}
		}
	}
	return errs
}
