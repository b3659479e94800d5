package workers

import (
	"context"
	"time"

	"metalhub_backend/internal/logger"
	"metalhub_backend/internal/metrics"
	"metalhub_backend/internal/repositories"

	"gorm.io/gorm"
)

const featuredWorkerName = "featured_expiry"

// FeaturedWorker clears the featured flag on listings whose promotion window
// has passed.
type FeaturedWorker struct {
	db          *gorm.DB
	listingRepo repositories.ListingRepository
	interval    time.Duration
	now         func() time.Time
}

func NewFeaturedWorker(db *gorm.DB, listingRepo repositories.ListingRepository, interval time.Duration) *FeaturedWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &FeaturedWorker{
		db:          db,
		listingRepo: listingRepo,
		interval:    interval,
		now:         time.Now,
	}
}

// Start runs one pass immediately and then every interval until ctx ends.
func (w *FeaturedWorker) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *FeaturedWorker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("featured worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and returns the number of listings
// un-featured.
func (w *FeaturedWorker) RunOnce(ctx context.Context) (int64, error) {
	affected, err := w.listingRepo.ClearExpiredFeatured(w.db.WithContext(ctx), w.now())
	logger.WorkerLog(featuredWorkerName, "clear_expired_featured", affected, err)
	metrics.RecordWorkerRun(featuredWorkerName, err)
	return affected, err
}
