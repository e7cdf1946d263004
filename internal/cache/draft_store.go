package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
)

// DraftStore is the local fallback for response sets. Records are keyed by
// assessment and candidate, so a later write replaces an earlier one.
type DraftStore struct {
	helper *CacheHelper
	ttl    time.Duration
}

func NewDraftStore(cm *CacheManager) *DraftStore {
	return &DraftStore{helper: cm.Draft, ttl: DraftCacheConfig.TTL}
}

func draftKey(assessmentID uint, candidateID string) string {
	return fmt.Sprintf("%d:%s", assessmentID, candidateID)
}

func (d *DraftStore) Put(ctx context.Context, record *models.CandidateResponse) error {
	if !d.helper.Available() {
		return ErrCacheNotAvailable
	}
	if err := d.helper.Set(ctx, draftKey(record.AssessmentID, record.CandidateID), record, d.ttl); err != nil {
		return fmt.Errorf("failed to store local draft: %w", err)
	}
	return nil
}

// Get returns the locally stored record, or nil when there is none.
func (d *DraftStore) Get(ctx context.Context, assessmentID uint, candidateID string) (*models.CandidateResponse, error) {
	var record models.CandidateResponse
	err := d.helper.Get(ctx, draftKey(assessmentID, candidateID), &record)
	switch {
	case err == nil:
		record.StoredLocally = true
		return &record, nil
	case errors.Is(err, ErrCacheNotFound), errors.Is(err, ErrCacheNotAvailable):
		return nil, nil
	default:
		return nil, err
	}
}

// Pending lists every locally stored record.
func (d *DraftStore) Pending(ctx context.Context) ([]*models.CandidateResponse, error) {
	if !d.helper.Available() {
		return nil, nil
	}
	keys, err := d.helper.Keys(ctx, "*")
	if err != nil {
		return nil, err
	}

	out := make([]*models.CandidateResponse, 0, len(keys))
	for _, key := range keys {
		var record models.CandidateResponse
		if err := d.helper.Get(ctx, key, &record); err != nil {
			if errors.Is(err, ErrCacheNotFound) {
				continue
			}
			return nil, err
		}
		record.StoredLocally = true
		out = append(out, &record)
	}
	return out, nil
}

func (d *DraftStore) Remove(ctx context.Context, assessmentID uint, candidateID string) error {
	return d.helper.Delete(ctx, draftKey(assessmentID, candidateID))
}
