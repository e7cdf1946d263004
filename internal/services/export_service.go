package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/repositories"
)

const exportSheet = "Responses"

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportResponse pairs a submitted response set with the question titles of
// its assessment. Answers are listed in question order; unanswered questions
// are left out.
func (s *exportService) ExportResponse(ctx context.Context, responseID uint) (*ResponseExport, error) {
	record, err := s.repo.Response().GetByID(ctx, nil, responseID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrResponseNotFound
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	if record.Status != models.ResponseSubmitted {
		return nil, ErrResponseNotSubmitted
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, nil, record.AssessmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	responses, err := record.Responses()
	if err != nil {
		return nil, err
	}

	answers := make([]ExportAnswer, 0, len(responses))
	for _, q := range assessment.QuestionsByOrder() {
		value, ok := responses[q.ID]
		if !ok || value.IsEmpty() {
			continue
		}
		answers = append(answers, ExportAnswer{
			Question: q.Title,
			Type:     q.Type,
			Value:    value,
		})
	}

	s.logger.Info("Exporting response", "response_id", responseID, "answers", len(answers))
	return &ResponseExport{
		Candidate: record.Candidate(),
		Assessment: ExportAssessment{
			Title:       assessment.Title,
			Description: assessment.Description,
		},
		Response: ExportResponse{
			Status:      record.Status,
			SubmittedAt: record.SubmittedAt,
			Responses:   answers,
		},
	}, nil
}

// ExportResponseXLSX renders the export as a single sheet workbook.
func (s *exportService) ExportResponseXLSX(ctx context.Context, responseID uint) ([]byte, error) {
	export, err := s.ExportResponse(ctx, responseID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("failed to prepare sheet: %w", err)
	}

	header := [][]interface{}{
		{"Assessment", export.Assessment.Title},
		{"Candidate", export.Candidate.ID},
		{"Name", export.Candidate.Name},
		{"Email", export.Candidate.Email},
		{"Status", string(export.Response.Status)},
	}
	if export.Response.SubmittedAt != nil {
		header = append(header, []interface{}{"Submitted at", *export.Response.SubmittedAt})
	}
	header = append(header, []interface{}{}, []interface{}{"Question", "Type", "Answer"})

	rows := header
	for _, a := range export.Response.Responses {
		rows = append(rows, []interface{}{a.Question, string(a.Type), a.Value.Display()})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	tableHeader := len(header)
	if err := f.SetCellStyle(exportSheet, "A1", fmt.Sprintf("A%d", tableHeader-2), bold); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(exportSheet, fmt.Sprintf("A%d", tableHeader), fmt.Sprintf("C%d", tableHeader), bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(exportSheet, "A", "A", 40); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(exportSheet, "C", "C", 60); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *exportService) ListResponses(ctx context.Context, assessmentID uint, filters repositories.ResponseFilters) (*ResponseListResponse, error) {
	responses, total, err := s.repo.Response().ListByAssessment(ctx, nil, assessmentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	return &ResponseListResponse{
		Responses: responses,
		Total:     total,
		Limit:     filters.Limit,
		Offset:    filters.Offset,
	}, nil
}
