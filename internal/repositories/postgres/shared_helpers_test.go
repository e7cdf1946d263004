package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/repositories"
)

// dryRunDB renders SQL without opening a connection. Default write
// transactions are skipped since beginning one needs a live connection.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(pgdriver.New(pgdriver.Config{
		DSN: "host=localhost user=test dbname=test sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true, SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db
}

func TestApplyPaginationAndSort(t *testing.T) {
	db := dryRunDB(t)

	tests := []struct {
		name      string
		sortBy    string
		sortOrder string
		limit     int
		offset    int
		want      []string
	}{
		{name: "defaults", want: []string{"ORDER BY created_at desc", "LIMIT 10"}},
		{name: "allowed column ascending", sortBy: "title", sortOrder: "asc", limit: 5, offset: 10, want: []string{"ORDER BY title asc", "LIMIT 5", "OFFSET 10"}},
		{name: "unknown column falls back", sortBy: "title; DROP TABLE assessments", want: []string{"ORDER BY created_at desc"}},
		{name: "limit is capped", limit: 1000, want: []string{"LIMIT 100"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
				var out []models.Assessment
				return ApplyPaginationAndSort(tx.Model(&models.Assessment{}), tt.sortBy, tt.sortOrder, tt.limit, tt.offset).Find(&out)
			})
			for _, fragment := range tt.want {
				assert.Contains(t, sql, fragment)
			}
			assert.NotContains(t, sql, "DROP TABLE")
		})
	}
}

func TestApplyAssessmentFilters(t *testing.T) {
	db := dryRunDB(t)
	status := models.StatusActive
	creator := "recruiter-7"

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var out []models.Assessment
		return ApplyAssessmentFilters(tx.Model(&models.Assessment{}), repositories.AssessmentFilters{
			Status:    &status,
			CreatedBy: &creator,
		}).Find(&out)
	})

	assert.Contains(t, sql, "status = 'Active'")
	assert.Contains(t, sql, "created_by = 'recruiter-7'")
	assert.NotContains(t, sql, "job_id")
}

func TestApplyResponseFilters(t *testing.T) {
	db := dryRunDB(t)
	status := models.ResponseSubmitted

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var out []models.CandidateResponse
		return ApplyResponseFilters(tx.Model(&models.CandidateResponse{}), repositories.ResponseFilters{
			Status: &status,
		}).Find(&out)
	})

	assert.Contains(t, sql, "status = 'submitted'")
	assert.NotContains(t, sql, "updated_at >=")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert failed: %w", gorm.ErrDuplicatedKey)))
	assert.False(t, isUniqueViolation(gorm.ErrRecordNotFound))
	assert.False(t, isUniqueViolation(errors.New("connection reset")))
}

func TestTranslateError(t *testing.T) {
	assert.ErrorIs(t, translateError(gorm.ErrRecordNotFound), repositories.ErrNotFound)

	other := errors.New("connection reset")
	assert.Equal(t, other, translateError(other))
	assert.NoError(t, translateError(nil))
}
