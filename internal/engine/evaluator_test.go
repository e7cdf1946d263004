package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
)

func yesNoAssessment(rules ...models.ConditionalRule) *models.Assessment {
	return &models.Assessment{
		Title: "Screening",
		Sections: []models.Section{{
			ID:    "s1",
			Title: "Basics",
			Questions: []models.Question{
				{
					ID: "Q1", Order: 0, Type: models.SingleChoice, Title: "Relocate?",
					Options: []models.Option{{ID: "o1", Text: "Yes", Value: "yes"}, {ID: "o2", Text: "No", Value: "no"}},
				},
				{ID: "Q2", Order: 1, Type: models.ShortText, Title: "Where to?", ConditionalLogic: rules},
			},
		}},
	}
}

func showWhenYes() models.ConditionalRule {
	return models.ConditionalRule{DependsOnQuestionID: "Q1", Condition: models.ConditionEquals, Value: "yes", Action: models.ActionShow}
}

func TestEvaluate_SingleChoiceDependency(t *testing.T) {
	a := yesNoAssessment(showWhenYes())

	tests := []struct {
		name      string
		responses models.Responses
		visible   bool
	}{
		{name: "no answer", responses: models.Responses{}, visible: false},
		{name: "answered no", responses: models.Responses{"Q1": models.Text("no")}, visible: false},
		{name: "answered yes", responses: models.Responses{"Q1": models.Text("yes")}, visible: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			states := Evaluate(a, tt.responses)
			assert.Equal(t, tt.visible, states["Q2"].Visible)
			assert.False(t, states["Q2"].Required)
			assert.True(t, states["Q1"].Visible)
		})
	}

	states := Evaluate(a, models.Responses{"Q1": models.Text("yes")})
	errs := ValidateAll(a, models.Responses{"Q1": models.Text("yes")}, states)
	assert.Empty(t, errs)
}

func TestEvaluate_Deterministic(t *testing.T) {
	a := yesNoAssessment(showWhenYes())
	responses := models.Responses{"Q1": models.Text("yes"), "Q2": models.Text("Berlin")}

	first := Evaluate(a, responses)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Evaluate(a, responses))
	}
}

func TestEvaluate_IdempotentUnderPruning(t *testing.T) {
	a := &models.Assessment{Sections: []models.Section{{ID: "s", Questions: []models.Question{
		{ID: "A", Order: 0, Type: models.ShortText},
		{ID: "B", Order: 1, Type: models.ShortText, ConditionalLogic: []models.ConditionalRule{
			{DependsOnQuestionID: "A", Condition: models.ConditionEquals, Value: "x", Action: models.ActionHide},
		}},
		{ID: "C", Order: 2, Type: models.ShortText, ConditionalLogic: []models.ConditionalRule{
			{DependsOnQuestionID: "B", Condition: models.ConditionEquals, Value: "y", Action: models.ActionShow},
		}},
	}}}}

	responses := models.Responses{"A": models.Text("x"), "B": models.Text("y"), "C": models.Text("z")}
	states := Evaluate(a, responses)
	require.False(t, states["B"].Visible)
	require.False(t, states["C"].Visible)

	pruned := responses.Clone()
	for _, id := range states.Hidden() {
		delete(pruned, id)
	}
	assert.Equal(t, states, Evaluate(a, pruned))
}

func TestEvaluate_NoRulesKeepsStaticState(t *testing.T) {
	a := yesNoAssessment(showWhenYes())
	a.Sections[0].Questions[0].Required = true

	for _, responses := range []models.Responses{
		{},
		{"Q1": models.Text("yes")},
		{"Q2": models.Text("anything")},
	} {
		st := Evaluate(a, responses)["Q1"]
		assert.True(t, st.Visible)
		assert.True(t, st.Required)
	}
}

func TestEvaluate_HideWinsOverShow(t *testing.T) {
	a := yesNoAssessment(
		showWhenYes(),
		models.ConditionalRule{DependsOnQuestionID: "Q1", Condition: models.ConditionNotEquals, Value: "no", Action: models.ActionHide},
	)
	states := Evaluate(a, models.Responses{"Q1": models.Text("yes")})
	assert.False(t, states["Q2"].Visible)
}

func TestEvaluate_UnansweredDependencyNeverSatisfies(t *testing.T) {
	conditions := []models.ConditionOperator{
		models.ConditionEquals, models.ConditionNotEquals, models.ConditionContains,
		models.ConditionGreaterThan, models.ConditionLessThan,
	}
	for _, c := range conditions {
		t.Run(string(c), func(t *testing.T) {
			a := yesNoAssessment(models.ConditionalRule{DependsOnQuestionID: "Q1", Condition: c, Value: "1", Action: models.ActionRequire})
			for _, responses := range []models.Responses{{}, {"Q1": models.Text("")}, {"Q1": models.List()}} {
				assert.False(t, Evaluate(a, responses)["Q2"].Required)
			}
		})
	}
}

func TestEvaluate_UnknownDependency(t *testing.T) {
	a := yesNoAssessment(models.ConditionalRule{DependsOnQuestionID: "missing", Condition: models.ConditionNotEquals, Value: "x", Action: models.ActionHide})
	assert.True(t, Evaluate(a, models.Responses{"Q1": models.Text("yes")})["Q2"].Visible)
}

func TestEvaluate_RequireRule(t *testing.T) {
	a := yesNoAssessment(models.ConditionalRule{DependsOnQuestionID: "Q1", Condition: models.ConditionEquals, Value: "yes", Action: models.ActionRequire})

	assert.False(t, Evaluate(a, models.Responses{"Q1": models.Text("no")})["Q2"].Required)

	states := Evaluate(a, models.Responses{"Q1": models.Text("yes")})
	assert.True(t, states["Q2"].Visible)
	assert.True(t, states["Q2"].Required)
}

func TestEvaluate_RequiredFalseWhenHidden(t *testing.T) {
	a := yesNoAssessment(showWhenYes())
	a.Sections[0].Questions[1].Required = true
	st := Evaluate(a, models.Responses{})["Q2"]
	assert.False(t, st.Visible)
	assert.False(t, st.Required)
}

func TestRuleSatisfied(t *testing.T) {
	tests := []struct {
		name      string
		condition models.ConditionOperator
		operand   any
		value     models.ResponseValue
		want      bool
	}{
		{"equals text", models.ConditionEquals, "yes", models.Text("yes"), true},
		{"equals numeric forms", models.ConditionEquals, float64(5), models.Text("5.0"), true},
		{"equals list membership", models.ConditionEquals, "go", models.List("go", "rust"), true},
		{"equals list set", models.ConditionEquals, []any{"rust", "go"}, models.List("go", "rust"), true},
		{"equals list set mismatch", models.ConditionEquals, []any{"go"}, models.List("go", "rust"), false},
		{"equals scalar in list operand", models.ConditionEquals, []any{"a", "b"}, models.Text("b"), true},
		{"equals file name", models.ConditionEquals, "cv.pdf", models.File(models.FileDescriptor{Name: "cv.pdf"}), true},
		{"not equals", models.ConditionNotEquals, "yes", models.Text("no"), true},
		{"not equals same", models.ConditionNotEquals, "yes", models.Text("yes"), false},
		{"contains substring", models.ConditionContains, "lang", models.Text("golang"), true},
		{"contains list member", models.ConditionContains, "go", models.List("go", "rust"), true},
		{"contains list missing", models.ConditionContains, "java", models.List("go", "rust"), false},
		{"contains all of list operand", models.ConditionContains, []any{"go", "rust"}, models.List("go", "rust", "c"), true},
		{"contains partial list operand", models.ConditionContains, []any{"go", "java"}, models.List("go", "rust"), false},
		{"greater than", models.ConditionGreaterThan, 3, models.Text("4"), true},
		{"greater than equal", models.ConditionGreaterThan, 3, models.Text("3"), false},
		{"greater than non numeric", models.ConditionGreaterThan, 3, models.Text("four"), false},
		{"greater than infinity", models.ConditionGreaterThan, 3, models.Text("Inf"), false},
		{"less than nan", models.ConditionLessThan, 3, models.Text("NaN"), false},
		{"equals hex float", models.ConditionEquals, 2, models.Text("0x1p1"), false},
		{"less than", models.ConditionLessThan, "10", models.Text(" 2.5 "), true},
		{"less than list operand", models.ConditionLessThan, []any{10}, models.Text("2"), false},
		{"less than list answer", models.ConditionLessThan, 10, models.List("2"), false},
		{"nil operand", models.ConditionEquals, nil, models.Text("x"), false},
		{"unknown operator", models.ConditionOperator("matches"), "x", models.Text("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := models.ConditionalRule{DependsOnQuestionID: "Q1", Condition: tt.condition, Value: tt.operand, Action: models.ActionShow}
			assert.Equal(t, tt.want, ruleSatisfied(rule, tt.value))
		})
	}
}

func TestConditionalState_Helpers(t *testing.T) {
	cs := ConditionalState{"a": {Visible: true}, "b": {Visible: false}}
	assert.True(t, cs.IsVisible("a"))
	assert.False(t, cs.IsVisible("b"))
	assert.True(t, cs.IsVisible("unknown"))
	assert.Equal(t, []string{"b"}, cs.Hidden())
}
