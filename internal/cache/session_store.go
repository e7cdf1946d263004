package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/formsession"
)

var ErrSessionNotFound = errors.New("session snapshot not found")

// SessionStore mirrors form session snapshots to Redis so a session survives
// a restart of the service.
type SessionStore struct {
	helper *CacheHelper
	ttl    time.Duration
}

func NewSessionStore(cm *CacheManager, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = SessionCacheConfig.TTL
	}
	return &SessionStore{helper: cm.Session, ttl: ttl}
}

func (s *SessionStore) Enabled() bool {
	return s.helper.Available()
}

func (s *SessionStore) Save(ctx context.Context, session formsession.FormSession) error {
	if err := s.helper.Set(ctx, session.ID, session, s.ttl); err != nil {
		return fmt.Errorf("failed to store session %s: %w", session.ID, err)
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context, id string) (formsession.FormSession, error) {
	var session formsession.FormSession
	if err := s.helper.Get(ctx, id, &session); err != nil {
		if errors.Is(err, ErrCacheNotFound) || errors.Is(err, ErrCacheNotAvailable) {
			return session, ErrSessionNotFound
		}
		return session, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return session, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.helper.Delete(ctx, id)
}
