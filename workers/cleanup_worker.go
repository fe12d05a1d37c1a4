package workers

import (
	"context"
	"sync"
	"time"

	"geotrack/interfaces"

	"github.com/sirupsen/logrus"
)

// CleanupWorker deletes raw location reports past the retention window.
// Membership state and the event log are kept indefinitely: state drives
// duration computation on the eventual exit, events are the system of
// record.
type CleanupWorker struct {
	locationRepo interfaces.LocationRepository

	retentionDays int
	interval      time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewCleanupWorker(locationRepo interfaces.LocationRepository, retentionDays int) *CleanupWorker {
	if retentionDays <= 0 {
		retentionDays = 30
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &CleanupWorker{
		locationRepo:  locationRepo,
		retentionDays: retentionDays,
		interval:      24 * time.Hour,
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (cw *CleanupWorker) Start() {
	cw.wg.Add(1)
	go cw.run()
	logrus.Info("Location cleanup worker started")
}

func (cw *CleanupWorker) Stop() {
	cw.cancel()
	cw.wg.Wait()
	logrus.Info("Location cleanup worker stopped")
}

func (cw *CleanupWorker) run() {
	defer cw.wg.Done()

	ticker := time.NewTicker(cw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cw.cleanup()
		case <-cw.ctx.Done():
			return
		}
	}
}

func (cw *CleanupWorker) cleanup() {
	ctx, cancel := context.WithTimeout(cw.ctx, 60*time.Second)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -cw.retentionDays)

	deleted, err := cw.locationRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		logrus.Errorf("Location cleanup failed: %v", err)
		return
	}

	if deleted > 0 {
		logrus.Infof("Deleted %d location report(s) older than %s", deleted, cutoff.Format(time.RFC3339))
	}
}
