// Package formsession holds the state of one candidate filling in one
// assessment and the transitions driven by the rendering surface.
//
// FormSession is a plain serializable value. The transition functions in this
// file are pure: they take an assessment and a session and return the next
// session. Controller adds locking and the asynchronous save/submit boundary
// on top of them.
package formsession

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/engine"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
)

type Status string

const (
	StatusEditing    Status = "editing"
	StatusSaving     Status = "saving"
	StatusSubmitting Status = "submitting"
	StatusSubmitted  Status = "submitted"
)

var (
	ErrUnknownQuestion   = errors.New("question does not belong to the assessment")
	ErrInvalidSection    = errors.New("section index out of range")
	ErrSectionIncomplete = errors.New("current section is incomplete")
	ErrSessionBusy       = errors.New("a save or submit is already in progress")
	ErrSessionClosed     = errors.New("session has already been submitted")
)

// Options are the per-session validation and navigation policies.
type Options struct {
	ValidateOnChange      bool `json:"validate_on_change"`
	ValidateOnBlur        bool `json:"validate_on_blur"`
	GateForwardNavigation bool `json:"gate_forward_navigation"`
}

func DefaultOptions() Options {
	return Options{ValidateOnChange: true, ValidateOnBlur: true}
}

type FormSession struct {
	ID           string           `json:"id"`
	AssessmentID uint             `json:"assessment_id"`
	Candidate    models.Candidate `json:"candidate"`

	Responses           models.Responses `json:"responses"`
	Errors              engine.Errors    `json:"errors"`
	Touched             map[string]bool  `json:"touched"`
	CurrentSectionIndex int              `json:"current_section_index"`

	// IsSubmitting is the busy flag, set while a save or submit is in flight
	IsSubmitting bool   `json:"is_submitting"`
	Status       Status `json:"status"`
	LastError    string `json:"last_error,omitempty"`

	ResponseID    *uint      `json:"response_id,omitempty"`
	StoredLocally bool       `json:"stored_locally"`
	LastSavedAt   *time.Time `json:"last_saved_at,omitempty"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func NewSession(assessmentID uint, candidate models.Candidate) FormSession {
	now := time.Now().UTC()
	return FormSession{
		ID:           uuid.New().String(),
		AssessmentID: assessmentID,
		Candidate:    candidate,
		Responses:    models.Responses{},
		Errors:       engine.Errors{},
		Touched:      map[string]bool{},
		Status:       StatusEditing,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Clone returns a deep copy so callers can hand sessions across goroutines.
func (s FormSession) Clone() FormSession {
	out := s
	out.Responses = s.Responses.Clone()
	out.Errors = make(engine.Errors, len(s.Errors))
	for k, v := range s.Errors {
		out.Errors[k] = v
	}
	out.Touched = make(map[string]bool, len(s.Touched))
	for k, v := range s.Touched {
		out.Touched[k] = v
	}
	if s.ResponseID != nil {
		id := *s.ResponseID
		out.ResponseID = &id
	}
	return out
}

func (s FormSession) Closed() bool {
	return s.Status == StatusSubmitted
}

// normalize fills nil maps, e.g. after decoding a stored snapshot, and drops
// a busy state that cannot survive a restart.
func (s FormSession) normalize() FormSession {
	if s.Responses == nil {
		s.Responses = models.Responses{}
	}
	if s.Errors == nil {
		s.Errors = engine.Errors{}
	}
	if s.Touched == nil {
		s.Touched = map[string]bool{}
	}
	if s.Status == "" || s.Status == StatusSaving || s.Status == StatusSubmitting {
		s.Status = StatusEditing
	}
	s.IsSubmitting = false
	return s
}

// ApplyResponse records an answer, re-evaluates the conditional state and
// prunes answers and errors of questions that became hidden. An empty value
// clears the answer.
func ApplyResponse(a *models.Assessment, s FormSession, questionID string, value models.ResponseValue, opts Options) (FormSession, engine.ConditionalState, error) {
	if s.Closed() {
		return s, nil, ErrSessionClosed
	}
	if _, ok := a.Question(questionID); !ok {
		return s, nil, ErrUnknownQuestion
	}

	next := s.Clone()
	if value.IsEmpty() {
		delete(next.Responses, questionID)
	} else {
		next.Responses[questionID] = value.Clone()
	}
	next.Touched[questionID] = true

	states := Prune(a, &next)

	if opts.ValidateOnChange {
		revalidateTouched(a, &next, states)
	}
	next.UpdatedAt = time.Now().UTC()
	return next, states, nil
}

// Prune evaluates the assessment and removes the answer, error and touched
// mark of every hidden question. It returns the evaluated state.
func Prune(a *models.Assessment, s *FormSession) engine.ConditionalState {
	states := engine.Evaluate(a, s.Responses)
	for _, id := range states.Hidden() {
		delete(s.Responses, id)
		delete(s.Errors, id)
		delete(s.Touched, id)
	}
	return states
}

// ApplyBlur marks a question as touched and, when enabled, validates it.
func ApplyBlur(a *models.Assessment, s FormSession, questionID string, opts Options) (FormSession, error) {
	if s.Closed() {
		return s, ErrSessionClosed
	}
	q, ok := a.Question(questionID)
	if !ok {
		return s, ErrUnknownQuestion
	}

	next := s.Clone()
	next.Touched[questionID] = true
	if !opts.ValidateOnBlur {
		return next, nil
	}

	states := engine.Evaluate(a, next.Responses)
	st, known := states[questionID]
	if known && !st.Visible {
		delete(next.Errors, questionID)
		return next, nil
	}
	setError(next.Errors, questionID, engine.ValidateOne(q, next.Responses[questionID], st.Required))
	return next, nil
}

// ApplyNavigation moves to another section. Out of range indices leave the
// session untouched. With gating enabled, moving forward past an incomplete
// section is refused and the errors of the first such section are surfaced.
func ApplyNavigation(a *models.Assessment, s FormSession, index int, opts Options) (FormSession, error) {
	if index < 0 || index >= len(a.Sections) {
		return s, ErrInvalidSection
	}
	if index <= s.CurrentSectionIndex || !opts.GateForwardNavigation {
		next := s.Clone()
		next.CurrentSectionIndex = index
		return next, nil
	}

	states := engine.Evaluate(a, s.Responses)
	for si := s.CurrentSectionIndex; si < index; si++ {
		if si < 0 {
			continue
		}
		section := &a.Sections[si]
		if engine.IsSectionComplete(section, s.Responses, states) {
			continue
		}
		next := s.Clone()
		for id, msg := range engine.ValidateSection(section, s.Responses, states) {
			next.Errors[id] = msg
			next.Touched[id] = true
		}
		return next, ErrSectionIncomplete
	}

	next := s.Clone()
	next.CurrentSectionIndex = index
	return next, nil
}

// revalidateTouched refreshes the errors of visible questions the candidate
// has interacted with; untouched questions are left alone until submit.
func revalidateTouched(a *models.Assessment, s *FormSession, states engine.ConditionalState) {
	for id := range s.Touched {
		q, ok := a.Question(id)
		if !ok {
			continue
		}
		st, known := states[id]
		if known && !st.Visible {
			continue
		}
		setError(s.Errors, id, engine.ValidateOne(q, s.Responses[id], st.Required))
	}
}

func setError(errs engine.Errors, questionID, msg string) {
	if msg == "" {
		delete(errs, questionID)
		return
	}
	errs[questionID] = msg
}
