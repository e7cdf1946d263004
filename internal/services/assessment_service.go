package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/engine"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/formsession"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/validator"
)

type assessmentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAssessmentService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) AssessmentService {
	return &assessmentService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *assessmentService) Create(ctx context.Context, req *validator.AssessmentCreateRequest, creatorID string) (*models.Assessment, error) {
	s.logger.Info("Creating assessment", "creator_id", creatorID, "title", req.Title)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	assessment := &models.Assessment{
		Title:       req.Title,
		Description: req.Description,
		JobID:       req.JobID,
		Status:      req.Status,
		Sections:    req.Sections,
		CreatedBy:   creatorID,
		Version:     1,
	}
	if assessment.Status == "" {
		assessment.Status = models.StatusDraft
	}

	if errs := s.validator.ValidateDefinition(assessment); len(errs) > 0 {
		s.logger.Warn("Rejected assessment definition", "title", req.Title, "errors", len(errs))
		return nil, errs
	}

	if err := s.repo.Assessment().Create(ctx, nil, assessment); err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	s.logger.Info("Assessment created", "assessment_id", assessment.ID, "questions", assessment.QuestionCount())
	return assessment, nil
}

func (s *assessmentService) Get(ctx context.Context, id uint) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return assessment, nil
}

// Update applies the request and re-validates the resulting definition.
// Sections are frozen once candidates have stored responses against them.
func (s *assessmentService) Update(ctx context.Context, id uint, req *validator.AssessmentUpdateRequest) (*models.Assessment, error) {
	s.logger.Info("Updating assessment", "assessment_id", id)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var updated *models.Assessment
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		assessment, err := tx.Assessment().GetByID(ctx, nil, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrAssessmentNotFound
			}
			return err
		}

		if req.Sections != nil {
			count, err := tx.Response().CountByAssessment(ctx, nil, id)
			if err != nil {
				return err
			}
			if count > 0 {
				return NewBusinessRuleError("definition_locked", ErrAssessmentLocked.Error(), map[string]interface{}{
					"assessment_id":  id,
					"response_count": count,
				})
			}
			assessment.Sections = req.Sections
		}
		if req.Title != nil {
			assessment.Title = *req.Title
		}
		if req.Description != nil {
			assessment.Description = *req.Description
		}
		if req.Status != nil {
			assessment.Status = *req.Status
		}

		if errs := s.validator.ValidateDefinition(assessment); len(errs) > 0 {
			return errs
		}
		if err := tx.Assessment().Update(ctx, nil, assessment); err != nil {
			return err
		}
		updated = assessment
		return nil
	})
	if err != nil {
		return nil, s.wrap("update", err)
	}

	s.logger.Info("Assessment updated", "assessment_id", id, "version", updated.Version)
	return updated, nil
}

func (s *assessmentService) Delete(ctx context.Context, id uint) error {
	s.logger.Info("Deleting assessment", "assessment_id", id)

	if err := s.repo.Assessment().Delete(ctx, nil, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrAssessmentNotFound
		}
		return fmt.Errorf("failed to delete assessment: %w", err)
	}
	return nil
}

func (s *assessmentService) List(ctx context.Context, filters repositories.AssessmentFilters) (*AssessmentListResponse, error) {
	assessments, total, err := s.repo.Assessment().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	return &AssessmentListResponse{
		Assessments: assessments,
		Total:       total,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	}, nil
}

// ===== ENGINE PREVIEW =====

func (s *assessmentService) Evaluate(ctx context.Context, id uint, responses models.Responses) (*EvaluationResult, error) {
	assessment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return EvaluateResponses(assessment, responses), nil
}

// EvaluateResponses runs the engine over a response set. Answers to questions
// that end up hidden are dropped before validation, as a live session would.
func EvaluateResponses(assessment *models.Assessment, responses models.Responses) *EvaluationResult {
	session := formsession.FormSession{Responses: responses.Clone()}
	states := formsession.Prune(assessment, &session)

	return &EvaluationResult{
		States:    states,
		Errors:    engine.ValidateAll(assessment, session.Responses, states),
		Progress:  engine.BuildProgress(assessment, session.Responses, states),
		Responses: session.Responses,
	}
}

func (s *assessmentService) wrap(op string, err error) error {
	var validationErrors ValidationErrors
	var businessRuleError *BusinessRuleError
	switch {
	case errors.As(err, &validationErrors), errors.As(err, &businessRuleError), errors.Is(err, ErrAssessmentNotFound):
		return err
	}
	return fmt.Errorf("failed to %s assessment: %w", op, err)
}
