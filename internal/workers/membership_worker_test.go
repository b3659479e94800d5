package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"metalhub_backend/internal/models"
	"metalhub_backend/internal/repositories"
	"metalhub_backend/internal/services"
	"metalhub_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type lapsedRepo struct {
	repositories.MembershipRepository
	ids   []string
	err   error
	asked time.Time
}

func (r *lapsedRepo) LapsedUserIDs(_ *gorm.DB, now time.Time, limit int) ([]string, error) {
	r.asked = now
	if len(r.ids) > limit {
		return r.ids[:limit], r.err
	}
	return r.ids, r.err
}

type refreshingService struct {
	services.MembershipService
	failFor map[string]bool
	seen    []string
}

func (s *refreshingService) GetCurrentMembership(_ context.Context, _ *gorm.DB, userID string) (*models.Membership, error) {
	s.seen = append(s.seen, userID)
	if s.failFor[userID] {
		return nil, errors.New("lock timeout")
	}
	return &models.Membership{UserID: userID, Plan: models.PlanFree, Status: models.MembershipStatusActive}, nil
}

func TestMembershipWorker_RunOnce(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	repo := &lapsedRepo{ids: []string{"u1", "u2", "u3"}}
	svc := &refreshingService{failFor: map[string]bool{"u2": true}}

	w := NewMembershipWorker(db, repo, svc, 0)
	w.now = func() time.Time { return now }

	n, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, []string{"u1", "u2", "u3"}, svc.seen)
	assert.Equal(t, now, repo.asked)
	assert.Equal(t, 6*time.Hour, w.interval)
}

func TestMembershipWorker_LookupError(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	svc := &refreshingService{}

	w := NewMembershipWorker(db, &lapsedRepo{err: errors.New("db down")}, svc, time.Minute)
	n, err := w.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Zero(t, n)
	assert.Empty(t, svc.seen)
}

func TestMembershipWorker_StopsOnCancelledContext(t *testing.T) {
	db, _ := testutil.NewMockDB(t)
	svc := &refreshingService{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewMembershipWorker(db, &lapsedRepo{ids: []string{"u1"}}, svc, time.Minute)
	n, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, svc.seen)
}
