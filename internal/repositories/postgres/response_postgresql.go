package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/repositories"
)

type ResponsePostgreSQL struct {
	db *gorm.DB
}

func NewResponsePostgreSQL(db *gorm.DB) repositories.ResponseRepository {
	return &ResponsePostgreSQL{db: db}
}

func (r *ResponsePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ResponsePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.CandidateResponse, error) {
	var response models.CandidateResponse
	if err := r.getDB(tx).WithContext(ctx).First(&response, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get response %d: %w", id, translateError(err))
	}
	return &response, nil
}

func (r *ResponsePostgreSQL) GetByCandidate(ctx context.Context, tx *gorm.DB, assessmentID uint, candidateID string) (*models.CandidateResponse, error) {
	var response models.CandidateResponse
	err := r.getDB(tx).WithContext(ctx).
		Where("assessment_id = ? AND candidate_id = ?", assessmentID, candidateID).
		First(&response).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get response of candidate %s: %w", candidateID, translateError(err))
	}
	return &response, nil
}

func (r *ResponsePostgreSQL) UpsertDraft(ctx context.Context, tx *gorm.DB, response *models.CandidateResponse) error {
	response.Status = models.ResponseDraft
	response.SubmittedAt = nil
	return r.write(ctx, tx, response)
}

// Finalize marks the response submitted. A submission time already set, for
// example by a replayed local submission, is kept.
func (r *ResponsePostgreSQL) Finalize(ctx context.Context, tx *gorm.DB, response *models.CandidateResponse) error {
	response.Status = models.ResponseSubmitted
	if response.SubmittedAt == nil {
		now := time.Now().UTC()
		response.SubmittedAt = &now
	}
	return r.write(ctx, tx, response)
}

// write locks the existing row of the candidate, if any, and replaces its
// answers. A submitted row is never overwritten. When a concurrent first write
// wins the insert, the update path is retried against its row.
func (r *ResponsePostgreSQL) write(ctx context.Context, tx *gorm.DB, response *models.CandidateResponse) error {
	return r.getDB(tx).WithContext(ctx).Transaction(func(db *gorm.DB) error {
		for attempt := 0; ; attempt++ {
			var existing models.CandidateResponse
			err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("assessment_id = ? AND candidate_id = ?", response.AssessmentID, response.CandidateID).
				First(&existing).Error

			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				// Savepoint, so a lost insert race leaves the outer transaction usable
				err = db.Transaction(func(sp *gorm.DB) error {
					return sp.Create(response).Error
				})
				if err == nil {
					return nil
				}
				if attempt == 0 && isUniqueViolation(err) {
					response.ID = 0
					continue
				}
				return fmt.Errorf("failed to create response: %w", err)
			case err != nil:
				return fmt.Errorf("failed to lock response: %w", err)
			}

			return r.update(db, &existing, response)
		}
	})
}

func (r *ResponsePostgreSQL) update(db *gorm.DB, existing, response *models.CandidateResponse) error {
	if existing.Status == models.ResponseSubmitted {
		return repositories.ErrAlreadySubmitted
	}

	response.ID = existing.ID
	response.CreatedAt = existing.CreatedAt
	err := db.Model(existing).
		Select("status", "candidate_name", "candidate_email", "answers", "submitted_at", "updated_at").
		Updates(response).Error
	if err != nil {
		return fmt.Errorf("failed to update response: %w", err)
	}
	response.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *ResponsePostgreSQL) ListByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint, filters repositories.ResponseFilters) ([]*models.CandidateResponse, int64, error) {
	query := r.getDB(tx).WithContext(ctx).
		Model(&models.CandidateResponse{}).
		Where("assessment_id = ?", assessmentID)
	query = ApplyResponseFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count responses: %w", err)
	}

	var responses []*models.CandidateResponse
	query = ApplyPaginationAndSort(query, "updated_at", "desc", filters.Limit, filters.Offset)
	if err := query.Find(&responses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list responses: %w", err)
	}
	return responses, total, nil
}

func (r *ResponsePostgreSQL) CountByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) (int64, error) {
	var count int64
	err := r.getDB(tx).WithContext(ctx).
		Model(&models.CandidateResponse{}).
		Where("assessment_id = ?", assessmentID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return count, nil
}
