package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/repositories"
)

func seedResponse(t *testing.T, repo *mockRepository, assessmentID uint, submit bool, responses models.Responses) *models.CandidateResponse {
	t.Helper()
	rec := &models.CandidateResponse{
		AssessmentID:   assessmentID,
		CandidateID:    "cand-1",
		CandidateName:  "Ada Lovelace",
		CandidateEmail: "ada@example.com",
	}
	require.NoError(t, rec.SetResponses(responses))
	if submit {
		require.NoError(t, repo.Response().Finalize(context.Background(), nil, rec))
	} else {
		require.NoError(t, repo.Response().UpsertDraft(context.Background(), nil, rec))
	}
	return rec
}

func TestExportService_ExportResponse(t *testing.T) {
	repo := newMockRepository()
	a := seedAssessment(t, repo, models.StatusActive)
	rec := seedResponse(t, repo, a.ID, true, models.Responses{
		"Q3": models.Text("4"),
		"Q1": models.Text("yes"),
		"Q2": models.Text("Lisbon"),
	})

	export, err := NewExportService(repo, testLogger()).ExportResponse(context.Background(), rec.ID)
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", export.Candidate.Name)
	assert.Equal(t, "Backend engineer", export.Assessment.Title)
	assert.Equal(t, "Screening", export.Assessment.Description)
	assert.Equal(t, models.ResponseSubmitted, export.Response.Status)
	require.NotNil(t, export.Response.SubmittedAt)

	require.Len(t, export.Response.Responses, 3)
	assert.Equal(t, ExportAnswer{Question: "Are you willing to relocate?", Type: models.SingleChoice, Value: models.Text("yes")}, export.Response.Responses[0])
	assert.Equal(t, "Preferred city", export.Response.Responses[1].Question)
	assert.Equal(t, models.Numeric, export.Response.Responses[2].Type)
}

func TestExportService_Errors(t *testing.T) {
	repo := newMockRepository()
	svc := NewExportService(repo, testLogger())
	a := seedAssessment(t, repo, models.StatusActive)
	draft := seedResponse(t, repo, a.ID, false, models.Responses{"Q1": models.Text("no")})

	_, err := svc.ExportResponse(context.Background(), draft.ID)
	assert.ErrorIs(t, err, ErrResponseNotSubmitted)

	_, err = svc.ExportResponse(context.Background(), 999)
	assert.ErrorIs(t, err, ErrResponseNotFound)
}

func TestExportService_ExportResponseXLSX(t *testing.T) {
	repo := newMockRepository()
	a := seedAssessment(t, repo, models.StatusActive)
	rec := seedResponse(t, repo, a.ID, true, models.Responses{
		"Q1": models.Text("no"),
		"Q3": models.Text("2"),
	})

	data, err := NewExportService(repo, testLogger()).ExportResponseXLSX(context.Background(), rec.ID)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Assessment", "Backend engineer"}, rows[0])
	assert.Equal(t, []string{"Candidate", "cand-1"}, rows[1])

	last := rows[len(rows)-1]
	assert.Equal(t, []string{"Years of Go", "numeric", "2"}, last)
	assert.Equal(t, []string{"Question", "Type", "Answer"}, rows[len(rows)-3])
}

func TestExportService_ListResponses(t *testing.T) {
	repo := newMockRepository()
	a := seedAssessment(t, repo, models.StatusActive)
	seedResponse(t, repo, a.ID, false, models.Responses{"Q1": models.Text("no")})

	list, err := NewExportService(repo, testLogger()).ListResponses(context.Background(), a.ID, repositories.ResponseFilters{Limit: 5})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)
	assert.Len(t, list.Responses, 1)
}
