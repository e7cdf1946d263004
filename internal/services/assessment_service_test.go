package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/validator"
)

func newAssessmentService(repo *mockRepository) AssessmentService {
	return NewAssessmentService(repo, testLogger(), validator.New())
}

func TestAssessmentService_Create(t *testing.T) {
	repo := newMockRepository()
	svc := newAssessmentService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, &validator.AssessmentCreateRequest{
		Title:    "Backend engineer",
		Sections: screeningSections(),
	}, "recruiter-1")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, models.StatusDraft, created.Status)
	assert.Equal(t, "recruiter-1", created.CreatedBy)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.QuestionCount())
}

func TestAssessmentService_CreateRejectsInvalidDefinition(t *testing.T) {
	svc := newAssessmentService(newMockRepository())

	sections := screeningSections()
	// Q2 now depends on a question that comes after it
	sections[0].Questions[1].ConditionalLogic[0].DependsOnQuestionID = "Q3"

	_, err := svc.Create(context.Background(), &validator.AssessmentCreateRequest{
		Title:    "Backend engineer",
		Sections: sections,
	}, "recruiter-1")

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.FieldErrors(), "sections[0].questions[1].conditionalLogic[0].dependsOnQuestionId")
}

func TestAssessmentService_CreateRejectsInvalidRequest(t *testing.T) {
	svc := newAssessmentService(newMockRepository())

	_, err := svc.Create(context.Background(), &validator.AssessmentCreateRequest{Title: "  "}, "recruiter-1")

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.FieldErrors(), "title")
}

func TestAssessmentService_GetNotFound(t *testing.T) {
	svc := newAssessmentService(newMockRepository())
	_, err := svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrAssessmentNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), 42), ErrAssessmentNotFound)
}

func TestAssessmentService_Update(t *testing.T) {
	repo := newMockRepository()
	svc := newAssessmentService(repo)
	ctx := context.Background()
	a := seedAssessment(t, repo, models.StatusDraft)

	title := "Senior backend engineer"
	active := models.StatusActive
	updated, err := svc.Update(ctx, a.ID, &validator.AssessmentUpdateRequest{Title: &title, Status: &active})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, models.StatusActive, updated.Status)
	assert.Len(t, updated.Sections, 2)

	t.Run("invalid sections are rejected", func(t *testing.T) {
		sections := screeningSections()
		sections[1].Questions[0].Order = 0

		_, err := svc.Update(ctx, a.ID, &validator.AssessmentUpdateRequest{Sections: sections})
		var verrs ValidationErrors
		assert.ErrorAs(t, err, &verrs)
	})

	t.Run("sections are locked once responses exist", func(t *testing.T) {
		rec := &models.CandidateResponse{AssessmentID: a.ID, CandidateID: "cand-1"}
		require.NoError(t, repo.Response().UpsertDraft(ctx, nil, rec))

		_, err := svc.Update(ctx, a.ID, &validator.AssessmentUpdateRequest{Sections: screeningSections()})
		var rule *BusinessRuleError
		require.ErrorAs(t, err, &rule)
		assert.Equal(t, "definition_locked", rule.Rule)
	})
}

func TestAssessmentService_List(t *testing.T) {
	repo := newMockRepository()
	svc := newAssessmentService(repo)
	seedAssessment(t, repo, models.StatusDraft)
	seedAssessment(t, repo, models.StatusActive)

	active := models.StatusActive
	list, err := svc.List(context.Background(), repositories.AssessmentFilters{Status: &active, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)
	assert.Equal(t, 10, list.Limit)
}

func TestAssessmentService_Evaluate(t *testing.T) {
	repo := newMockRepository()
	svc := newAssessmentService(repo)
	a := seedAssessment(t, repo, models.StatusActive)

	result, err := svc.Evaluate(context.Background(), a.ID, models.Responses{
		"Q1": models.Text("no"),
		"Q2": models.Text("Berlin"),
		"Q3": models.Text("7"),
	})
	require.NoError(t, err)

	assert.False(t, result.States["Q2"].Visible)
	assert.NotContains(t, result.Responses, "Q2")
	assert.Equal(t, "Value must be at most 5.", result.Errors["Q3"])
	assert.Equal(t, 100, result.Progress.Percentage)
	assert.False(t, result.Progress.CanSubmit)

	_, err = svc.Evaluate(context.Background(), 999, nil)
	assert.ErrorIs(t, err, ErrAssessmentNotFound)
}
