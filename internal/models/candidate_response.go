package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type ResponseStatus string

const (
	ResponseDraft     ResponseStatus = "draft"
	ResponseSubmitted ResponseStatus = "submitted"
)

// CandidateResponse is the stored form of a response set, one row per
// candidate and assessment.
type CandidateResponse struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	AssessmentID uint           `json:"assessment_id" gorm:"not null;uniqueIndex:idx_candidate_assessment"`
	CandidateID  string         `json:"candidate_id" gorm:"not null;size:255;uniqueIndex:idx_candidate_assessment"`
	Status       ResponseStatus `json:"status" gorm:"default:draft;index"`

	CandidateName  string `json:"candidate_name" gorm:"size:255"`
	CandidateEmail string `json:"candidate_email" gorm:"size:255"`

	// Answers keyed by question id, see Responses
	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"`

	SubmittedAt *time.Time `json:"submitted_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Set when the record was written to the local fallback store
	StoredLocally bool `json:"stored_locally" gorm:"-"`
}

func (CandidateResponse) TableName() string {
	return "candidate_responses"
}

func (r *CandidateResponse) SetResponses(responses Responses) error {
	data, err := json.Marshal(responses)
	if err != nil {
		return fmt.Errorf("failed to encode responses: %w", err)
	}
	r.Answers = datatypes.JSON(data)
	return nil
}

func (r *CandidateResponse) Responses() (Responses, error) {
	out := Responses{}
	if len(r.Answers) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(r.Answers, &out); err != nil {
		return nil, fmt.Errorf("failed to decode responses: %w", err)
	}
	return out, nil
}

func (r *CandidateResponse) Candidate() Candidate {
	return Candidate{ID: r.CandidateID, Name: r.CandidateName, Email: r.CandidateEmail}
}

// Candidate is the applicant a response set belongs to.
type Candidate struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}
