package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/repositories"
)

// mockRepository is an in-memory repositories.Repository. Stored values are
// copied through JSON the way the database and cache would.
type mockRepository struct {
	mu          sync.Mutex
	nextID      uint
	assessments map[uint]*models.Assessment
	responses   map[uint]*models.CandidateResponse

	// writeErr makes response writes fail, simulating an unreachable primary
	writeErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		assessments: map[uint]*models.Assessment{},
		responses:   map[uint]*models.CandidateResponse{},
	}
}

func (m *mockRepository) Assessment() repositories.AssessmentRepository { return mockAssessments{m} }
func (m *mockRepository) Response() repositories.ResponseRepository     { return mockResponses{m} }
func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

func (m *mockRepository) failWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

func (m *mockRepository) id() uint {
	m.nextID++
	return m.nextID
}

func copyOf[T any](t *T) *T {
	data, err := json.Marshal(t)
	if err != nil {
		panic(err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return &out
}

type mockAssessments struct{ m *mockRepository }

func (r mockAssessments) Create(ctx context.Context, tx *gorm.DB, a *models.Assessment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a.ID = r.m.id()
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	r.m.assessments[a.ID] = copyOf(a)
	return nil
}

func (r mockAssessments) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.assessments[id]
	if !ok {
		return nil, fmt.Errorf("failed to get assessment %d: %w", id, repositories.ErrNotFound)
	}
	return copyOf(a), nil
}

func (r mockAssessments) Update(ctx context.Context, tx *gorm.DB, a *models.Assessment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.assessments[a.ID]; !ok {
		return repositories.ErrNotFound
	}
	a.Version++
	r.m.assessments[a.ID] = copyOf(a)
	return nil
}

func (r mockAssessments) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.assessments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.m.assessments, id)
	return nil
}

func (r mockAssessments) List(ctx context.Context, tx *gorm.DB, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Assessment
	for _, a := range r.m.assessments {
		if filters.Status != nil && a.Status != *filters.Status {
			continue
		}
		out = append(out, copyOf(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

type mockResponses struct{ m *mockRepository }

func (r mockResponses) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.CandidateResponse, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	rec, ok := r.m.responses[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyOf(rec), nil
}

func (r mockResponses) GetByCandidate(ctx context.Context, tx *gorm.DB, assessmentID uint, candidateID string) (*models.CandidateResponse, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if rec := r.find(assessmentID, candidateID); rec != nil {
		return copyOf(rec), nil
	}
	return nil, repositories.ErrNotFound
}

func (r mockResponses) find(assessmentID uint, candidateID string) *models.CandidateResponse {
	for _, rec := range r.m.responses {
		if rec.AssessmentID == assessmentID && rec.CandidateID == candidateID {
			return rec
		}
	}
	return nil
}

func (r mockResponses) UpsertDraft(ctx context.Context, tx *gorm.DB, rec *models.CandidateResponse) error {
	rec.Status = models.ResponseDraft
	rec.SubmittedAt = nil
	return r.write(rec)
}

func (r mockResponses) Finalize(ctx context.Context, tx *gorm.DB, rec *models.CandidateResponse) error {
	rec.Status = models.ResponseSubmitted
	if rec.SubmittedAt == nil {
		now := time.Now().UTC()
		rec.SubmittedAt = &now
	}
	return r.write(rec)
}

func (r mockResponses) write(rec *models.CandidateResponse) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.writeErr != nil {
		return r.m.writeErr
	}
	if existing := r.find(rec.AssessmentID, rec.CandidateID); existing != nil {
		if existing.Status == models.ResponseSubmitted {
			return repositories.ErrAlreadySubmitted
		}
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.ID = r.m.id()
		rec.CreatedAt = time.Now().UTC()
	}
	rec.UpdatedAt = time.Now().UTC()
	r.m.responses[rec.ID] = copyOf(rec)
	return nil
}

func (r mockResponses) ListByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint, filters repositories.ResponseFilters) ([]*models.CandidateResponse, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.CandidateResponse
	for _, rec := range r.m.responses {
		if rec.AssessmentID != assessmentID {
			continue
		}
		if filters.Status != nil && rec.Status != *filters.Status {
			continue
		}
		out = append(out, copyOf(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r mockResponses) CountByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, rec := range r.m.responses {
		if rec.AssessmentID == assessmentID {
			n++
		}
	}
	return n, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fp(f float64) *float64 { return &f }

// screeningSections is a two section definition: Q2 is shown only when Q1 is
// "yes" and Q3 is a required numeric answer between 1 and 5.
func screeningSections() []models.Section {
	return []models.Section{
		{
			ID:    "about",
			Title: "About you",
			Questions: []models.Question{
				{
					ID: "Q1", Order: 0, Type: models.SingleChoice, Title: "Are you willing to relocate?", Required: true,
					Options: []models.Option{{ID: "y", Text: "Yes", Value: "yes"}, {ID: "n", Text: "No", Value: "no"}},
				},
				{
					ID: "Q2", Order: 1, Type: models.ShortText, Title: "Preferred city",
					Validation: []models.ValidationRule{{Type: models.RuleMinLength, Value: 3}},
					ConditionalLogic: []models.ConditionalRule{
						{DependsOnQuestionID: "Q1", Condition: models.ConditionEquals, Value: "yes", Action: models.ActionShow},
					},
				},
			},
		},
		{
			ID:    "experience",
			Title: "Experience",
			Questions: []models.Question{
				{
					ID: "Q3", Order: 2, Type: models.Numeric, Title: "Years of Go", Required: true,
					Validation: []models.ValidationRule{{Type: models.RuleNumericRange, Value: models.NumericRange{Min: fp(1), Max: fp(5)}}},
				},
			},
		},
	}
}

// seedAssessment stores an assessment with the screening definition.
func seedAssessment(t *testing.T, repo *mockRepository, status models.AssessmentStatus) *models.Assessment {
	t.Helper()
	a := &models.Assessment{Title: "Backend engineer", Description: "Screening", Status: status, Sections: screeningSections()}
	if err := repo.Assessment().Create(context.Background(), nil, a); err != nil {
		t.Fatalf("seed assessment: %v", err)
	}
	return a
}
