package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
)

func TestTypeValidators_CoverEveryQuestionType(t *testing.T) {
	for _, qt := range models.QuestionTypes {
		_, ok := typeValidators[qt]
		assert.True(t, ok, "no validator for %s", qt)
	}
	assert.Len(t, typeValidators, len(models.QuestionTypes))
}

func TestValidateOne_NumericRange(t *testing.T) {
	var rangeValue any
	require.NoError(t, json.Unmarshal([]byte(`{"min":1,"max":5}`), &rangeValue))
	q := &models.Question{
		ID: "Q", Type: models.Numeric, Title: "Years",
		Validation: []models.ValidationRule{{Type: models.RuleNumericRange, Value: rangeValue}},
	}

	tests := []struct {
		value string
		want  string
	}{
		{"7", "Value must be at most 5."},
		{"3", ""},
		{"0.5", "Value must be at least 1."},
		{"5", ""},
		{"abc", MsgInvalidNumber},
		{"NaN", MsgInvalidNumber},
		{"nan", MsgInvalidNumber},
		{"Infinity", MsgInvalidNumber},
		{"-inf", MsgInvalidNumber},
		{"0x1p1", MsgInvalidNumber},
		{"1_0", MsgInvalidNumber},
		{"1e400", MsgInvalidNumber},
		{"2e0", ""},
		{" 4 ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateOne(q, models.Text(tt.value), false))
		})
	}
}

func TestValidateOne_Required(t *testing.T) {
	q := &models.Question{ID: "Q", Type: models.ShortText, Title: "Name"}

	assert.Equal(t, MsgRequired, ValidateOne(q, models.ResponseValue{}, true))
	assert.Equal(t, MsgRequired, ValidateOne(q, models.Text(""), true))
	assert.Equal(t, "", ValidateOne(q, models.ResponseValue{}, false))

	q.Validation = []models.ValidationRule{{Type: models.RuleRequired, Message: "Tell us your name"}}
	assert.Equal(t, "Tell us your name", ValidateOne(q, models.List(), true))
}

func TestValidateOne_Text(t *testing.T) {
	tests := []struct {
		name  string
		rules []models.ValidationRule
		value models.ResponseValue
		want  string
	}{
		{
			name:  "min length",
			rules: []models.ValidationRule{{Type: models.RuleMinLength, Value: 3}},
			value: models.Text("ab"),
			want:  "Must be at least 3 characters.",
		},
		{
			name:  "min length counts runes",
			rules: []models.ValidationRule{{Type: models.RuleMinLength, Value: 3}},
			value: models.Text("äöü"),
		},
		{
			name:  "max length custom message",
			rules: []models.ValidationRule{{Type: models.RuleMaxLength, Value: float64(4), Message: "Too long"}},
			value: models.Text("hello"),
			want:  "Too long",
		},
		{
			name:  "email ok",
			rules: []models.ValidationRule{{Type: models.RuleEmail}},
			value: models.Text("jane@example.com"),
		},
		{
			name:  "email invalid",
			rules: []models.ValidationRule{{Type: models.RuleEmail}},
			value: models.Text("jane@"),
			want:  MsgInvalidEmail,
		},
		{
			name:  "url ok",
			rules: []models.ValidationRule{{Type: models.RuleURL}},
			value: models.Text("https://example.com/portfolio"),
		},
		{
			name:  "url invalid",
			rules: []models.ValidationRule{{Type: models.RuleURL}},
			value: models.Text("not a url"),
			want:  MsgInvalidURL,
		},
		{
			name:  "list is not text",
			value: models.List("a"),
			want:  MsgInvalidText,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &models.Question{ID: "Q", Type: models.LongText, Title: "About", Validation: tt.rules}
			assert.Equal(t, tt.want, ValidateOne(q, tt.value, false))
		})
	}
}

func TestValidateOne_Choices(t *testing.T) {
	options := []models.Option{{ID: "1", Text: "Go", Value: "go"}, {ID: "2", Text: "Rust", Value: "rust"}}
	single := &models.Question{ID: "S", Type: models.SingleChoice, Options: options}
	multi := &models.Question{ID: "M", Type: models.MultiChoice, Options: options}

	assert.Equal(t, "", ValidateOne(single, models.Text("go"), true))
	assert.Equal(t, MsgInvalidOption, ValidateOne(single, models.Text("java"), true))
	assert.Equal(t, MsgInvalidOption, ValidateOne(single, models.List("go"), true))

	assert.Equal(t, "", ValidateOne(multi, models.List("go", "rust"), true))
	assert.Equal(t, MsgInvalidOptions, ValidateOne(multi, models.List("go", "java"), true))
	assert.Equal(t, MsgInvalidOptions, ValidateOne(multi, models.File(models.FileDescriptor{Name: "go"}), true))
}

func TestValidateOne_File(t *testing.T) {
	q := &models.Question{ID: "F", Type: models.FileUpload}
	assert.Equal(t, "", ValidateOne(q, models.File(models.FileDescriptor{Name: "cv.pdf", Size: 1024, MimeType: "application/pdf"}), true))
	assert.Equal(t, MsgInvalidFile, ValidateOne(q, models.Text("cv.pdf"), true))
	assert.Equal(t, MsgInvalidFile, ValidateOne(q, models.File(models.FileDescriptor{Name: " "}), true))
}

func TestValidateOne_UnsupportedType(t *testing.T) {
	q := &models.Question{ID: "X", Type: models.QuestionType("matrix")}
	assert.Equal(t, MsgUnsupported, ValidateOne(q, models.Text("a"), false))
}

func TestValidateAll_SkipsHiddenQuestions(t *testing.T) {
	a := yesNoAssessment(showWhenYes())
	a.Sections[0].Questions[1].Required = true
	a.Sections[0].Questions[0].Required = true

	responses := models.Responses{"Q1": models.Text("no")}
	errs := ValidateAll(a, responses, Evaluate(a, responses))
	assert.False(t, errs.HasErrors())

	responses = models.Responses{"Q1": models.Text("yes")}
	errs = ValidateAll(a, responses, Evaluate(a, responses))
	assert.Equal(t, Errors{"Q2": MsgRequired}, errs)
}

func TestValidateSection_UsesStaticRequiredForUnknownQuestions(t *testing.T) {
	section := &models.Section{ID: "s", Questions: []models.Question{
		{ID: "A", Type: models.ShortText, Required: true},
		{ID: "B", Type: models.ShortText},
	}}
	errs := ValidateSection(section, models.Responses{}, ConditionalState{})
	assert.Equal(t, Errors{"A": MsgRequired}, errs)
}
