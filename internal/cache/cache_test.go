package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/formsession"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/models"
)

func newTestManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheManager(client), mr
}

func TestCacheHelper_GetSetDelete(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	var out map[string]int
	assert.ErrorIs(t, cm.Assessment.Get(ctx, "id:1", &out), ErrCacheNotFound)

	require.NoError(t, cm.Assessment.Set(ctx, "id:1", map[string]int{"a": 1}, time.Minute))
	assert.True(t, mr.Exists("assessment:id:1"))
	require.NoError(t, cm.Assessment.Get(ctx, "id:1", &out))
	assert.Equal(t, map[string]int{"a": 1}, out)

	exists, err := cm.Assessment.Exists(ctx, "id:1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, cm.Assessment.Delete(ctx, "id:1"))
	assert.False(t, mr.Exists("assessment:id:1"))
}

func TestCacheHelper_WithoutClient(t *testing.T) {
	cm := NewCacheManager(nil)
	ctx := context.Background()

	var out string
	assert.ErrorIs(t, cm.Session.Get(ctx, "x", &out), ErrCacheNotAvailable)
	assert.NoError(t, cm.Session.Set(ctx, "x", "y", time.Minute))
	assert.NoError(t, cm.Session.Delete(ctx, "x"))
	assert.ErrorIs(t, cm.HealthCheck(ctx), ErrCacheNotAvailable)

	calls := 0
	err := cm.Assessment.CacheOrExecute(ctx, "id:1", &out, time.Minute, func() (interface{}, error) {
		calls++
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", out)
	assert.Equal(t, 1, calls)
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	cm, _ := newTestManager(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return &models.Assessment{ID: 3, Title: "Cached"}, nil
	}

	var first, second models.Assessment
	require.NoError(t, cm.Assessment.CacheOrExecute(ctx, AssessmentKey(3), &first, time.Minute, fetch))
	require.NoError(t, cm.Assessment.CacheOrExecute(ctx, AssessmentKey(3), &second, time.Minute, fetch))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Cached", second.Title)

	sentinel := errors.New("db down")
	var other models.Assessment
	err := cm.Assessment.CacheOrExecute(ctx, AssessmentKey(4), &other, time.Minute, func() (interface{}, error) {
		return nil, sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}

func TestAssessmentListKey(t *testing.T) {
	type filters struct {
		Status string
		Limit  int
	}
	a := AssessmentListKey(filters{Status: "Active", Limit: 10})

	assert.Equal(t, a, AssessmentListKey(filters{Status: "Active", Limit: 10}))
	assert.NotEqual(t, a, AssessmentListKey(filters{Status: "Active", Limit: 20}))
	assert.Regexp(t, `^list:[0-9a-f]{24}$`, a)
}

func TestInvalidateAssessmentCache(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cm.Assessment.Set(ctx, AssessmentKey(1), "a", time.Minute))
	require.NoError(t, cm.Assessment.Set(ctx, "list:page:1", "b", time.Minute))
	require.NoError(t, cm.Assessment.Set(ctx, "list:page:2", "c", time.Minute))
	require.NoError(t, cm.Assessment.Set(ctx, AssessmentKey(2), "d", time.Minute))

	InvalidateAssessmentCache(ctx, cm, 1)

	assert.False(t, mr.Exists("assessment:id:1"))
	assert.False(t, mr.Exists("assessment:list:page:1"))
	assert.False(t, mr.Exists("assessment:list:page:2"))
	assert.True(t, mr.Exists("assessment:id:2"))
}

func TestSessionStore(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()
	store := NewSessionStore(cm, time.Hour)
	assert.True(t, store.Enabled())

	session := formsession.NewSession(9, models.Candidate{ID: "cand-2"})
	session.Responses["Q1"] = models.List("go", "rust")
	require.NoError(t, store.Save(ctx, session))
	assert.Equal(t, time.Hour, mr.TTL("session:"+session.ID))

	loaded, err := store.Load(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)
	assert.Equal(t, models.List("go", "rust"), loaded.Responses["Q1"])

	require.NoError(t, store.Delete(ctx, session.ID))
	_, err = store.Load(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDraftStore(t *testing.T) {
	cm, _ := newTestManager(t)
	ctx := context.Background()
	store := NewDraftStore(cm)

	missing, err := store.Get(ctx, 1, "cand-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	record := &models.CandidateResponse{AssessmentID: 1, CandidateID: "cand-1", Status: models.ResponseDraft}
	require.NoError(t, record.SetResponses(models.Responses{"Q1": models.Text("yes")}))
	require.NoError(t, store.Put(ctx, record))
	require.NoError(t, store.Put(ctx, &models.CandidateResponse{AssessmentID: 2, CandidateID: "cand-3", Status: models.ResponseSubmitted}))

	got, err := store.Get(ctx, 1, "cand-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.StoredLocally)
	responses, err := got.Responses()
	require.NoError(t, err)
	assert.Equal(t, models.Text("yes"), responses["Q1"])

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, store.Remove(ctx, 1, "cand-1"))
	pending, err = store.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	unavailable := NewDraftStore(NewCacheManager(nil))
	assert.ErrorIs(t, unavailable.Put(ctx, record), ErrCacheNotAvailable)
}
