package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/cache"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/repositories"
)

type AssessmentPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAssessmentPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (a *AssessmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AssessmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	if err := a.getDB(tx).WithContext(ctx).Create(assessment).Error; err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, a.cacheManager.Assessment, "list:*")
	return nil
}

// GetByID retrieves an assessment by ID with caching. Sessions read the
// definition on every request.
func (a *AssessmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	var assessment models.Assessment
	err := a.cacheManager.Assessment.CacheOrExecute(ctx, cache.AssessmentKey(id), &assessment, cache.AssessmentCacheConfig.TTL, func() (interface{}, error) {
		var dbAssessment models.Assessment
		if err := a.getDB(tx).WithContext(ctx).First(&dbAssessment, id).Error; err != nil {
			return nil, translateError(err)
		}
		return &dbAssessment, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment %d: %w", id, err)
	}
	return &assessment, nil
}

// Update saves the definition and bumps its version
func (a *AssessmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	assessment.Version++
	result := a.getDB(tx).WithContext(ctx).
		Model(assessment).
		Select("title", "description", "status", "job_id", "sections", "version", "updated_at").
		Updates(assessment)
	if result.Error != nil {
		return fmt.Errorf("failed to update assessment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update assessment %d: %w", assessment.ID, repositories.ErrNotFound)
	}

	cache.InvalidateAssessmentCache(ctx, a.cacheManager, assessment.ID)
	return nil
}

// Delete soft deletes an assessment. Stored responses are kept.
func (a *AssessmentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := a.getDB(tx).WithContext(ctx).Delete(&models.Assessment{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete assessment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete assessment %d: %w", id, repositories.ErrNotFound)
	}

	cache.InvalidateAssessmentCache(ctx, a.cacheManager, id)
	return nil
}

// assessmentPage is the cached form of one List result
type assessmentPage struct {
	Assessments []*models.Assessment `json:"assessments"`
	Total       int64                `json:"total"`
}

// List retrieves assessments with filters and pagination. Pages read outside a
// transaction are cached until the next write to any assessment.
func (a *AssessmentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	fetch := func() (interface{}, error) {
		query := ApplyAssessmentFilters(a.getDB(tx).WithContext(ctx).Model(&models.Assessment{}), filters)

		page := &assessmentPage{Assessments: []*models.Assessment{}}
		if err := query.Count(&page.Total).Error; err != nil {
			return nil, fmt.Errorf("failed to count assessments: %w", err)
		}

		query = ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
		if err := query.Find(&page.Assessments).Error; err != nil {
			return nil, fmt.Errorf("failed to list assessments: %w", err)
		}
		return page, nil
	}

	if tx != nil {
		page, err := fetch()
		if err != nil {
			return nil, 0, err
		}
		p := page.(*assessmentPage)
		return p.Assessments, p.Total, nil
	}

	var page assessmentPage
	err := a.cacheManager.Assessment.CacheOrExecute(ctx, cache.AssessmentListKey(filters), &page, cache.AssessmentCacheConfig.TTL, fetch)
	if err != nil {
		return nil, 0, err
	}
	return page.Assessments, page.Total, nil
}
