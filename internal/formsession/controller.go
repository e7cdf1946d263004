package formsession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/engine"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
)

// Draft is what the controller hands to the persistence collaborator.
type Draft struct {
	SessionID    string
	AssessmentID uint
	Candidate    models.Candidate
	ResponseID   *uint
	Responses    models.Responses
}

// Persister stores response sets. Implementations may fall back to a local
// store and report that through CandidateResponse.StoredLocally.
type Persister interface {
	CreateOrUpdateDraft(ctx context.Context, draft Draft) (*models.CandidateResponse, error)
	FinalizeSubmission(ctx context.Context, draft Draft) (*models.CandidateResponse, error)
}

// FieldErrorer is implemented by persistence errors that carry per-question
// detail.
type FieldErrorer interface {
	FieldErrors() map[string]string
}

// SubmissionValidationError is returned by Submit when the response set does
// not validate. The persistence collaborator is not called in that case.
type SubmissionValidationError struct {
	Errors engine.Errors
}

func (e *SubmissionValidationError) Error() string {
	return fmt.Sprintf("submission has %d invalid answers", len(e.Errors))
}

func (e *SubmissionValidationError) FieldErrors() map[string]string {
	return e.Errors
}

// FieldView is a visible question as the rendering surface needs it.
type FieldView struct {
	Question *models.Question     `json:"question"`
	Value    models.ResponseValue `json:"value"`
	Error    string               `json:"error,omitempty"`
	Required bool                 `json:"required"`
}

// Controller drives a single FormSession. All methods are safe for concurrent
// use; Save and Submit release the lock while the persister runs and reject
// overlapping calls with ErrSessionBusy.
type Controller struct {
	mu         sync.Mutex
	assessment *models.Assessment
	session    FormSession
	states     engine.ConditionalState
	persister  Persister
	opts       Options
	now        func() time.Time
}

// NewController starts a controller for a session. A nil persister turns Save
// into a no-op and makes Submit complete locally.
func NewController(assessment *models.Assessment, session FormSession, persister Persister, opts Options) *Controller {
	s := session.normalize().Clone()
	states := Prune(assessment, &s)
	return &Controller{
		assessment: assessment,
		session:    s,
		states:     states,
		persister:  persister,
		opts:       opts,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (c *Controller) Assessment() *models.Assessment {
	return c.assessment
}

func (c *Controller) Options() Options {
	return c.opts
}

// Snapshot returns a copy of the session.
func (c *Controller) Snapshot() FormSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// States returns the conditional state for the current responses.
func (c *Controller) States() engine.ConditionalState {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(engine.ConditionalState, len(c.states))
	for k, v := range c.states {
		out[k] = v
	}
	return out
}

func (c *Controller) Progress() engine.Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return engine.BuildProgress(c.assessment, c.session.Responses, c.states)
}

// Fields lists the visible questions of a section in display order.
func (c *Controller) Fields(sectionIndex int) ([]FieldView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sectionIndex < 0 || sectionIndex >= len(c.assessment.Sections) {
		return nil, ErrInvalidSection
	}
	section := &c.assessment.Sections[sectionIndex]
	fields := make([]FieldView, 0, len(section.Questions))
	for qi := range section.Questions {
		q := &section.Questions[qi]
		st, known := c.states[q.ID]
		if known && !st.Visible {
			continue
		}
		fields = append(fields, FieldView{
			Question: q,
			Value:    c.session.Responses[q.ID].Clone(),
			Error:    c.session.Errors[q.ID],
			Required: st.Required,
		})
	}
	return fields, nil
}

// SetResponse records an answer. Edits are refused while a submission is in
// flight and after the session was submitted.
func (c *Controller) SetResponse(questionID string, value models.ResponseValue) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Status == StatusSubmitting {
		return ErrSessionBusy
	}
	next, states, err := ApplyResponse(c.assessment, c.session, questionID, value, c.opts)
	if err != nil {
		return err
	}
	c.session, c.states = next, states
	return nil
}

func (c *Controller) Blur(questionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := ApplyBlur(c.assessment, c.session, questionID, c.opts)
	if err != nil {
		return err
	}
	c.session = next
	return nil
}

func (c *Controller) GoToSection(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := ApplyNavigation(c.assessment, c.session, index, c.opts)
	c.session = next
	return err
}

// Save hands the current, possibly partial, response set to the persister.
// Validation is not required to pass.
func (c *Controller) Save(ctx context.Context) (*models.CandidateResponse, error) {
	c.mu.Lock()
	if err := c.checkIdle(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.persister == nil {
		c.mu.Unlock()
		return nil, nil
	}
	draft := c.beginLocked(StatusSaving)
	c.mu.Unlock()

	record, err := c.persister.CreateOrUpdateDraft(ctx, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failLocked(err)
		return nil, fmt.Errorf("failed to save responses: %w", err)
	}

	now := c.now()
	c.session.Status = StatusEditing
	c.session.IsSubmitting = false
	c.session.LastError = ""
	c.session.LastSavedAt = &now
	c.recordLocked(record)
	return record, nil
}

// Submit validates the whole response set and, when it is clean, hands it to
// the persister. On any failure the session returns to editing with every
// answer kept.
func (c *Controller) Submit(ctx context.Context) (*models.CandidateResponse, error) {
	c.mu.Lock()
	if err := c.checkIdle(); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	if errs := engine.ValidateAll(c.assessment, c.session.Responses, c.states); errs.HasErrors() {
		c.session.Errors = errs
		for id := range errs {
			c.session.Touched[id] = true
		}
		c.session.LastError = "Please correct the highlighted answers before submitting."
		c.mu.Unlock()
		return nil, &SubmissionValidationError{Errors: errs}
	}

	if c.persister == nil {
		c.completeLocked(nil)
		c.mu.Unlock()
		return nil, nil
	}
	draft := c.beginLocked(StatusSubmitting)
	c.mu.Unlock()

	record, err := c.persister.FinalizeSubmission(ctx, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failLocked(err)
		return nil, fmt.Errorf("failed to submit responses: %w", err)
	}
	c.completeLocked(record)
	return record, nil
}

func (c *Controller) checkIdle() error {
	if c.session.Closed() {
		return ErrSessionClosed
	}
	if c.session.IsSubmitting {
		return ErrSessionBusy
	}
	return nil
}

func (c *Controller) beginLocked(status Status) Draft {
	c.session.Status = status
	c.session.IsSubmitting = true
	c.session.LastError = ""

	var responseID *uint
	if c.session.ResponseID != nil {
		id := *c.session.ResponseID
		responseID = &id
	}
	return Draft{
		SessionID:    c.session.ID,
		AssessmentID: c.session.AssessmentID,
		Candidate:    c.session.Candidate,
		ResponseID:   responseID,
		Responses:    c.session.Responses.Clone(),
	}
}

func (c *Controller) failLocked(err error) {
	c.session.Status = StatusEditing
	c.session.IsSubmitting = false
	c.session.LastError = err.Error()

	var fe FieldErrorer
	if errors.As(err, &fe) {
		for id, msg := range fe.FieldErrors() {
			if _, ok := c.assessment.Question(id); ok && c.states.IsVisible(id) {
				c.session.Errors[id] = msg
			}
		}
	}
}

func (c *Controller) completeLocked(record *models.CandidateResponse) {
	now := c.now()
	c.session.Status = StatusSubmitted
	c.session.IsSubmitting = false
	c.session.LastError = ""
	c.session.Errors = engine.Errors{}
	c.session.SubmittedAt = &now
	c.recordLocked(record)
}

func (c *Controller) recordLocked(record *models.CandidateResponse) {
	if record == nil {
		return
	}
	if record.ID != 0 {
		id := record.ID
		c.session.ResponseID = &id
	}
	c.session.StoredLocally = record.StoredLocally
	c.session.UpdatedAt = c.now()
}
