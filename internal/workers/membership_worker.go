package workers

import (
	"context"
	"time"

	"metalhub_backend/internal/logger"
	"metalhub_backend/internal/metrics"
	"metalhub_backend/internal/repositories"
	"metalhub_backend/internal/services"

	"gorm.io/gorm"
)

const (
	membershipWorkerName = "membership_expiry"
	membershipBatchSize  = 200
)

// MembershipWorker moves lapsed paid memberships back to FREE ahead of the
// owner's next request. Each user goes through GetCurrentMembership, so the
// expire-and-replace step stays in one place.
type MembershipWorker struct {
	db                *gorm.DB
	membershipRepo    repositories.MembershipRepository
	membershipService services.MembershipService
	interval          time.Duration
	now               func() time.Time
}

func NewMembershipWorker(
	db *gorm.DB,
	membershipRepo repositories.MembershipRepository,
	membershipService services.MembershipService,
	interval time.Duration,
) *MembershipWorker {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &MembershipWorker{
		db:                db,
		membershipRepo:    membershipRepo,
		membershipService: membershipService,
		interval:          interval,
		now:               time.Now,
	}
}

func (w *MembershipWorker) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *MembershipWorker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("membership worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce expires one batch and returns how many users were moved to FREE.
// A failure on one user is logged and does not stop the batch.
func (w *MembershipWorker) RunOnce(ctx context.Context) (int64, error) {
	db := w.db.WithContext(ctx)

	userIDs, err := w.membershipRepo.LapsedUserIDs(db, w.now(), membershipBatchSize)
	if err != nil {
		logger.WorkerLog(membershipWorkerName, "find_lapsed", 0, err)
		metrics.RecordWorkerRun(membershipWorkerName, err)
		return 0, err
	}

	var expired int64
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			break
		}
		if _, err := w.membershipService.GetCurrentMembership(ctx, db, userID); err != nil {
			logger.Warn("membership expiry failed", "worker", membershipWorkerName, "user_id", userID, "error", err)
			continue
		}
		expired++
	}

	logger.WorkerLog(membershipWorkerName, "expire_lapsed", expired, nil)
	metrics.RecordWorkerRun(membershipWorkerName, nil)
	return expired, nil
}
