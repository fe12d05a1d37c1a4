package workers

import (
	"context"
	"sync"
	"time"

	"geotrack/interfaces"

	"github.com/sirupsen/logrus"
)

// GeofenceWorker periodically deactivates geofences whose expiry has
// passed so the active snapshot stops returning them. Devices still
// marked inside an expired geofence are logged but left untouched: no
// synthetic exit is emitted, a later location report outside a revived
// geofence is the only thing that produces one.
type GeofenceWorker struct {
	geofenceRepo   interfaces.GeofenceRepository
	membershipRepo interfaces.MembershipRepository

	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewGeofenceWorker(geofenceRepo interfaces.GeofenceRepository, membershipRepo interfaces.MembershipRepository, interval time.Duration) *GeofenceWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &GeofenceWorker{
		geofenceRepo:   geofenceRepo,
		membershipRepo: membershipRepo,
		interval:       interval,
		ctx:            ctx,
		cancel:         cancel,
	}
}

func (gw *GeofenceWorker) Start() {
	gw.wg.Add(1)
	go gw.run()
	logrus.Info("Geofence expiry worker started")
}

func (gw *GeofenceWorker) Stop() {
	gw.cancel()
	gw.wg.Wait()
	logrus.Info("Geofence expiry worker stopped")
}

func (gw *GeofenceWorker) run() {
	defer gw.wg.Done()

	ticker := time.NewTicker(gw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			gw.sweep()
		case <-gw.ctx.Done():
			return
		}
	}
}

func (gw *GeofenceWorker) sweep() {
	ctx, cancel := context.WithTimeout(gw.ctx, 30*time.Second)
	defer cancel()

	now := time.Now()

	geofences, err := gw.geofenceRepo.GetAll(ctx)
	if err != nil {
		logrus.Errorf("Expiry sweep failed to list geofences: %v", err)
		return
	}

	for _, geofence := range geofences {
		if !geofence.IsActive || geofence.ExpiresAt == nil || geofence.ExpiresAt.After(now) {
			continue
		}

		inside, err := gw.membershipRepo.CountInside(ctx, geofence.ID.Hex())
		if err != nil {
			logrus.Warnf("Failed to count devices inside geofence %s: %v", geofence.ID.Hex(), err)
		} else if inside > 0 {
			logrus.Warnf("Geofence %s expired with %d device(s) still inside; no exit will be emitted",
				geofence.ID.Hex(), inside)
		}
	}

	deactivated, err := gw.geofenceRepo.DeactivateExpired(ctx, now)
	if err != nil {
		logrus.Errorf("Expiry sweep failed: %v", err)
		return
	}

	if deactivated > 0 {
		logrus.Infof("Deactivated %d expired geofence(s)", deactivated)
	}
}
