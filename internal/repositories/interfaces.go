package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrAlreadySubmitted = errors.New("response has already been submitted")
)

// ===== SHARED FILTER STRUCTS =====

type AssessmentFilters struct {
	Status    *models.AssessmentStatus `json:"status" form:"status"`
	JobID     *uint                    `json:"job_id" form:"job_id"`
	CreatedBy *string                  `json:"created_by" form:"created_by"`
	Limit     int                      `json:"limit" form:"limit"`
	Offset    int                      `json:"offset" form:"offset"`
	SortBy    string                   `json:"sort_by" form:"sort_by"`       // "created_at", "title", "updated_at"
	SortOrder string                   `json:"sort_order" form:"sort_order"` // "asc", "desc"
}

type ResponseFilters struct {
	Status   *models.ResponseStatus `json:"status" form:"status"`
	DateFrom *time.Time             `json:"date_from" form:"date_from"`
	DateTo   *time.Time             `json:"date_to" form:"date_to"`
	Limit    int                    `json:"limit" form:"limit"`
	Offset   int                    `json:"offset" form:"offset"`
}

// ===== REPOSITORY INTERFACES =====
// Every method accepts an optional transaction; nil uses the default connection.

type AssessmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters AssessmentFilters) ([]*models.Assessment, int64, error)
}

type ResponseRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.CandidateResponse, error)
	GetByCandidate(ctx context.Context, tx *gorm.DB, assessmentID uint, candidateID string) (*models.CandidateResponse, error)
	// UpsertDraft creates or replaces the draft of a candidate. It fails with
	// ErrAlreadySubmitted when the candidate already submitted.
	UpsertDraft(ctx context.Context, tx *gorm.DB, response *models.CandidateResponse) error
	// Finalize stores the final answers and marks the response submitted.
	Finalize(ctx context.Context, tx *gorm.DB, response *models.CandidateResponse) error
	ListByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint, filters ResponseFilters) ([]*models.CandidateResponse, int64, error)
	CountByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) (int64, error)
}
