package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/cache"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/events"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/formsession"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/validator"
)

// SessionConfig holds the policies applied to every new form session
type SessionConfig struct {
	TTL     time.Duration
	Options formsession.Options
}

// sessionService keeps live controllers in memory and mirrors every change
// to the session store, so any instance can pick a session up again.
type sessionService struct {
	repo      repositories.Repository
	store     *cache.SessionStore
	persister *responsePersister
	drafts    *cache.DraftStore
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
	config    SessionConfig

	mu       sync.RWMutex
	sessions map[string]*formsession.Controller
}

func NewSessionService(repo repositories.Repository, cacheManager *cache.CacheManager, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator, config SessionConfig) SessionService {
	drafts := cache.NewDraftStore(cacheManager)
	return &sessionService{
		repo:      repo,
		store:     cache.NewSessionStore(cacheManager, config.TTL),
		persister: newResponsePersister(repo, drafts, logger),
		drafts:    drafts,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		config:    config,
		sessions:  make(map[string]*formsession.Controller),
	}
}

// Start opens a session for a candidate. Answers already stored for the
// candidate, in the primary or the local store, are loaded into it.
func (s *sessionService) Start(ctx context.Context, req *validator.StartSessionRequest) (*SessionView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	assessment, err := s.loadAssessment(ctx, req.AssessmentID)
	if err != nil {
		return nil, err
	}
	if assessment.Status != models.StatusActive {
		return nil, ErrAssessmentNotActive
	}

	session := formsession.NewSession(assessment.ID, models.Candidate{
		ID:    req.CandidateID,
		Name:  req.CandidateName,
		Email: req.CandidateEmail,
	})
	if err := s.resume(ctx, &session); err != nil {
		return nil, err
	}

	ctrl := formsession.NewController(assessment, session, s.persister, s.config.Options)
	s.mu.Lock()
	s.sessions[session.ID] = ctrl
	s.mu.Unlock()
	s.mirror(ctx, ctrl)

	s.logger.Info("Form session started",
		"session_id", session.ID,
		"assessment_id", assessment.ID,
		"candidate_id", req.CandidateID,
		"resumed_answers", len(session.Responses))
	return s.view(ctrl), nil
}

func (s *sessionService) resume(ctx context.Context, session *formsession.FormSession) error {
	var latest *models.CandidateResponse

	stored, err := s.repo.Response().GetByCandidate(ctx, nil, session.AssessmentID, session.Candidate.ID)
	switch {
	case err == nil:
		latest = stored
	case errors.Is(err, repositories.ErrNotFound):
	default:
		s.logger.Warn("Primary store unavailable while resuming session", "assessment_id", session.AssessmentID, "error", err)
	}

	local, err := s.drafts.Get(ctx, session.AssessmentID, session.Candidate.ID)
	if err != nil {
		s.logger.Warn("Failed to read local draft", "assessment_id", session.AssessmentID, "error", err)
	}
	if local != nil && (latest == nil || local.UpdatedAt.After(latest.UpdatedAt)) {
		latest = local
	}
	if latest == nil {
		return nil
	}

	if latest.Status == models.ResponseSubmitted {
		return ErrResponseAlreadySubmitted
	}
	responses, err := latest.Responses()
	if err != nil {
		return fmt.Errorf("failed to resume responses: %w", err)
	}
	session.Responses = responses
	session.StoredLocally = latest.StoredLocally
	if latest.ID != 0 {
		id := latest.ID
		session.ResponseID = &id
	}
	return nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*SessionView, error) {
	ctrl, err := s.controller(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(ctrl), nil
}

func (s *sessionService) SetResponse(ctx context.Context, sessionID, questionID string, value models.ResponseValue) (*SessionView, error) {
	ctrl, err := s.controller(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := ctrl.SetResponse(questionID, value); err != nil {
		return nil, err
	}
	s.mirror(ctx, ctrl)
	return s.view(ctrl), nil
}

func (s *sessionService) Blur(ctx context.Context, sessionID, questionID string) (*SessionView, error) {
	ctrl, err := s.controller(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := ctrl.Blur(questionID); err != nil {
		return nil, err
	}
	s.mirror(ctx, ctrl)
	return s.view(ctrl), nil
}

func (s *sessionService) Navigate(ctx context.Context, sessionID string, sectionIndex int) (*SessionView, error) {
	ctrl, err := s.controller(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	err = ctrl.GoToSection(sectionIndex)
	switch {
	case err == nil:
	case errors.Is(err, formsession.ErrSectionIncomplete):
		s.mirror(ctx, ctrl)
		return s.view(ctrl), err
	default:
		return nil, err
	}
	s.mirror(ctx, ctrl)
	return s.view(ctrl), nil
}

func (s *sessionService) Save(ctx context.Context, sessionID string) (*SessionView, error) {
	ctrl, err := s.controller(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	record, err := ctrl.Save(ctx)
	s.mirror(ctx, ctrl)
	if err != nil {
		s.logger.Error("Failed to save responses", "session_id", sessionID, "error", err)
		return nil, err
	}
	if record != nil {
		s.publish(ctx, events.ResponseDraftSaved, ctrl.Snapshot())
	}
	return s.view(ctrl), nil
}

func (s *sessionService) Submit(ctx context.Context, sessionID string) (*SessionView, error) {
	ctrl, err := s.controller(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	_, err = ctrl.Submit(ctx)
	s.mirror(ctx, ctrl)
	if err != nil {
		var invalid *formsession.SubmissionValidationError
		if errors.As(err, &invalid) {
			s.logger.Info("Submission rejected by validation", "session_id", sessionID, "errors", len(invalid.Errors))
		} else {
			s.logger.Error("Failed to submit responses", "session_id", sessionID, "error", err)
		}
		return nil, err
	}

	snapshot := ctrl.Snapshot()
	s.logger.Info("Responses submitted",
		"session_id", sessionID,
		"assessment_id", snapshot.AssessmentID,
		"candidate_id", snapshot.Candidate.ID,
		"stored_locally", snapshot.StoredLocally)
	s.publish(ctx, events.ResponseSubmitted, snapshot)
	return s.view(ctrl), nil
}

func (s *sessionService) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	_, live := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !live {
		if _, err := s.store.Load(ctx, sessionID); errors.Is(err, cache.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *sessionService) SyncLocalDrafts(ctx context.Context) (int, error) {
	synced, err := s.persister.syncPending(ctx)
	if synced > 0 {
		s.logger.Info("Synced local drafts", "count", synced)
	}
	return synced, err
}

// ===== HELPERS =====

// controller returns the live controller of a session, restoring it from the
// session store when this instance has not seen it yet.
func (s *sessionService) controller(ctx context.Context, sessionID string) (*formsession.Controller, error) {
	s.mu.RLock()
	ctrl, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return ctrl, nil
	}

	snapshot, err := s.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, cache.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	assessment, err := s.loadAssessment(ctx, snapshot.AssessmentID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[sessionID]; ok {
		return existing, nil
	}
	ctrl = formsession.NewController(assessment, snapshot, s.persister, s.config.Options)
	s.sessions[sessionID] = ctrl
	s.logger.Info("Form session restored", "session_id", sessionID)
	return ctrl, nil
}

func (s *sessionService) loadAssessment(ctx context.Context, id uint) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}
	return assessment, nil
}

func (s *sessionService) mirror(ctx context.Context, ctrl *formsession.Controller) {
	if !s.store.Enabled() {
		return
	}
	snapshot := ctrl.Snapshot()
	if err := s.store.Save(ctx, snapshot); err != nil {
		s.logger.Error("Failed to mirror session", "session_id", snapshot.ID, "error", err)
	}
}

func (s *sessionService) publish(ctx context.Context, eventType string, snapshot formsession.FormSession) {
	if s.publisher == nil {
		return
	}
	data := events.ResponseEvent{
		AssessmentID:  snapshot.AssessmentID,
		CandidateID:   snapshot.Candidate.ID,
		SessionID:     snapshot.ID,
		AnsweredCount: len(snapshot.Responses),
		StoredLocally: snapshot.StoredLocally,
		SubmittedAt:   snapshot.SubmittedAt,
	}
	if snapshot.ResponseID != nil {
		data.ResponseID = *snapshot.ResponseID
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.logger.Error("Failed to publish event", "event_type", eventType, "session_id", snapshot.ID, "error", err)
	}
}

func (s *sessionService) view(ctrl *formsession.Controller) *SessionView {
	snapshot := ctrl.Snapshot()
	assessment := ctrl.Assessment()

	view := &SessionView{
		Session:      snapshot,
		SectionCount: len(assessment.Sections),
		Fields:       []formsession.FieldView{},
		Progress:     ctrl.Progress(),
		HiddenCount:  len(ctrl.States().Hidden()),
	}
	if len(assessment.Sections) == 0 {
		return view
	}

	index := snapshot.CurrentSectionIndex
	if index < 0 || index >= len(assessment.Sections) {
		index = 0
	}
	section := assessment.Sections[index]
	view.Section = SectionInfo{
		Index:       index,
		ID:          section.ID,
		Title:       section.Title,
		Description: section.Description,
	}
	if fields, err := ctrl.Fields(index); err == nil {
		view.Fields = fields
	}
	return view
}
