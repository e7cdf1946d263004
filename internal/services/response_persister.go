package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/cache"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/formsession"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/repositories"
)

// responsePersister writes response sets to the primary store and falls back
// to the local draft store when the primary is unreachable.
type responsePersister struct {
	repo   repositories.Repository
	drafts *cache.DraftStore
	logger *slog.Logger
}

func newResponsePersister(repo repositories.Repository, drafts *cache.DraftStore, logger *slog.Logger) *responsePersister {
	return &responsePersister{
		repo:   repo,
		drafts: drafts,
		logger: logger,
	}
}

func (p *responsePersister) CreateOrUpdateDraft(ctx context.Context, draft formsession.Draft) (*models.CandidateResponse, error) {
	record, err := buildRecord(draft, models.ResponseDraft)
	if err != nil {
		return nil, err
	}
	return p.write(ctx, record, p.repo.Response().UpsertDraft)
}

func (p *responsePersister) FinalizeSubmission(ctx context.Context, draft formsession.Draft) (*models.CandidateResponse, error) {
	record, err := buildRecord(draft, models.ResponseSubmitted)
	if err != nil {
		return nil, err
	}
	return p.write(ctx, record, p.repo.Response().Finalize)
}

type writeFunc func(ctx context.Context, tx *gorm.DB, response *models.CandidateResponse) error

func (p *responsePersister) write(ctx context.Context, record *models.CandidateResponse, primary writeFunc) (*models.CandidateResponse, error) {
	err := primary(ctx, nil, record)
	if err == nil {
		if rmErr := p.drafts.Remove(ctx, record.AssessmentID, record.CandidateID); rmErr != nil {
			p.logger.Warn("Failed to clear local draft", "assessment_id", record.AssessmentID, "candidate_id", record.CandidateID, "error", rmErr)
		}
		return record, nil
	}
	if errors.Is(err, repositories.ErrAlreadySubmitted) {
		return nil, ErrResponseAlreadySubmitted
	}

	p.logger.Warn("Primary store write failed, keeping responses locally",
		"assessment_id", record.AssessmentID,
		"candidate_id", record.CandidateID,
		"status", record.Status,
		"error", err)

	if record.Status == models.ResponseSubmitted && record.SubmittedAt == nil {
		now := time.Now().UTC()
		record.SubmittedAt = &now
	}
	record.UpdatedAt = time.Now().UTC()
	if localErr := p.drafts.Put(ctx, record); localErr != nil {
		return nil, fmt.Errorf("failed to store responses: %w", errors.Join(err, localErr))
	}
	record.StoredLocally = true
	return record, nil
}

// syncPending replays locally held records into the primary store and
// returns how many were moved.
func (p *responsePersister) syncPending(ctx context.Context) (int, error) {
	pending, err := p.drafts.Pending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list local drafts: %w", err)
	}

	synced := 0
	for _, record := range pending {
		record.ID = 0
		record.StoredLocally = false

		var werr error
		if record.Status == models.ResponseSubmitted {
			werr = p.repo.Response().Finalize(ctx, nil, record)
		} else {
			werr = p.repo.Response().UpsertDraft(ctx, nil, record)
		}
		switch {
		case werr == nil:
			synced++
		case errors.Is(werr, repositories.ErrAlreadySubmitted):
			p.logger.Info("Dropping local draft of submitted response", "assessment_id", record.AssessmentID, "candidate_id", record.CandidateID)
		default:
			return synced, fmt.Errorf("failed to sync local draft: %w", werr)
		}
		if err := p.drafts.Remove(ctx, record.AssessmentID, record.CandidateID); err != nil {
			return synced, fmt.Errorf("failed to clear local draft: %w", err)
		}
	}
	return synced, nil
}

func buildRecord(draft formsession.Draft, status models.ResponseStatus) (*models.CandidateResponse, error) {
	record := &models.CandidateResponse{
		AssessmentID:   draft.AssessmentID,
		CandidateID:    draft.Candidate.ID,
		CandidateName:  draft.Candidate.Name,
		CandidateEmail: draft.Candidate.Email,
		Status:         status,
	}
	if err := record.SetResponses(draft.Responses); err != nil {
		return nil, err
	}
	return record, nil
}
