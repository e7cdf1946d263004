package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/engine"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/formsession"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/validator"
)

// ===== SERVICE INTERFACES =====

type AssessmentService interface {
	Create(ctx context.Context, req *validator.AssessmentCreateRequest, creatorID string) (*models.Assessment, error)
	Get(ctx context.Context, id uint) (*models.Assessment, error)
	Update(ctx context.Context, id uint, req *validator.AssessmentUpdateRequest) (*models.Assessment, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters repositories.AssessmentFilters) (*AssessmentListResponse, error)

	// Evaluate computes the derived state of an arbitrary response set
	// without touching any session.
	Evaluate(ctx context.Context, id uint, responses models.Responses) (*EvaluationResult, error)
}

type SessionService interface {
	Start(ctx context.Context, req *validator.StartSessionRequest) (*SessionView, error)
	Get(ctx context.Context, sessionID string) (*SessionView, error)
	SetResponse(ctx context.Context, sessionID, questionID string, value models.ResponseValue) (*SessionView, error)
	Blur(ctx context.Context, sessionID, questionID string) (*SessionView, error)
	// Navigate returns the view alongside formsession.ErrSectionIncomplete so
	// callers can render the surfaced errors.
	Navigate(ctx context.Context, sessionID string, sectionIndex int) (*SessionView, error)
	Save(ctx context.Context, sessionID string) (*SessionView, error)
	Submit(ctx context.Context, sessionID string) (*SessionView, error)
	Delete(ctx context.Context, sessionID string) error

	// SyncLocalDrafts replays response sets held by the local fallback store
	// into the primary store.
	SyncLocalDrafts(ctx context.Context) (int, error)
}

type ExportService interface {
	ExportResponse(ctx context.Context, responseID uint) (*ResponseExport, error)
	ExportResponseXLSX(ctx context.Context, responseID uint) ([]byte, error)
	ListResponses(ctx context.Context, assessmentID uint, filters repositories.ResponseFilters) (*ResponseListResponse, error)
}

// ServiceManager owns the service instances
type ServiceManager interface {
	Assessment() AssessmentService
	Session() SessionService
	Export() ExportService

	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	HealthCheck(ctx context.Context) map[string]string
}

// ===== RESPONSE TYPES =====

type AssessmentListResponse struct {
	Assessments []*models.Assessment `json:"assessments"`
	Total       int64                `json:"total"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}

type ResponseListResponse struct {
	Responses []*models.CandidateResponse `json:"responses"`
	Total     int64                       `json:"total"`
	Limit     int                         `json:"limit"`
	Offset    int                         `json:"offset"`
}

// EvaluationResult is the derived state of a response set. Responses holds
// the input with answers to hidden questions removed.
type EvaluationResult struct {
	States    engine.ConditionalState `json:"states"`
	Errors    engine.Errors           `json:"errors"`
	Progress  engine.Progress         `json:"progress"`
	Responses models.Responses        `json:"responses"`
}

type SectionInfo struct {
	Index       int    `json:"index"`
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// SessionView is what the rendering surface needs after every interaction.
type SessionView struct {
	Session      formsession.FormSession `json:"session"`
	Section      SectionInfo             `json:"section"`
	SectionCount int                     `json:"section_count"`
	Fields       []formsession.FieldView `json:"fields"`
	Progress     engine.Progress         `json:"progress"`
	HiddenCount  int                     `json:"hidden_count"`
}

// ResponseExport is the downloadable projection of a submitted response set.
type ResponseExport struct {
	Candidate  models.Candidate `json:"candidate"`
	Assessment ExportAssessment `json:"assessment"`
	Response   ExportResponse   `json:"response"`
}

type ExportAssessment struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ExportResponse struct {
	Status      models.ResponseStatus `json:"status"`
	SubmittedAt *time.Time            `json:"submittedAt"`
	Responses   []ExportAnswer        `json:"responses"`
}

type ExportAnswer struct {
	Question string               `json:"question"`
	Type     models.QuestionType  `json:"type"`
	Value    models.ResponseValue `json:"value"`
}
