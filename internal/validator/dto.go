package validator

import (
	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
)

// AssessmentCreateRequest represents the request structure for creating assessments
type AssessmentCreateRequest struct {
	Title       string                  `json:"title" validate:"required,not_blank,max=200"`
	Description string                  `json:"description" validate:"max=2000"`
	JobID       *uint                   `json:"job_id"`
	Status      models.AssessmentStatus `json:"status" validate:"omitempty,oneof=Draft Active Archived"`
	Sections    []models.Section        `json:"sections" validate:"dive"`
}

// AssessmentUpdateRequest replaces the definition of an existing assessment
type AssessmentUpdateRequest struct {
	Title       *string                  `json:"title" validate:"omitempty,not_blank,max=200"`
	Description *string                  `json:"description" validate:"omitempty,max=2000"`
	Status      *models.AssessmentStatus `json:"status" validate:"omitempty,oneof=Draft Active Archived"`
	Sections    []models.Section         `json:"sections" validate:"omitempty,dive"`
}

// EvaluateRequest previews derived state for an arbitrary response set
type EvaluateRequest struct {
	Responses models.Responses `json:"responses"`
}

// StartSessionRequest opens a form session for a candidate
type StartSessionRequest struct {
	AssessmentID   uint   `json:"assessment_id" validate:"required"`
	CandidateID    string `json:"candidate_id" validate:"required,not_blank,max=255"`
	CandidateName  string `json:"candidate_name" validate:"max=255"`
	CandidateEmail string `json:"candidate_email" validate:"omitempty,email,max=255"`
}

// SetResponseRequest carries one answer; a null or empty value clears it
type SetResponseRequest struct {
	Value models.ResponseValue `json:"value"`
}

// NavigateRequest moves the session to another section
type NavigateRequest struct {
	SectionIndex *int `json:"section_index" validate:"required,min=0"`
}
