package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"geotrack/interfaces"
	"geotrack/models"
	"geotrack/utils"

	"github.com/sirupsen/logrus"
)

// DetectorService turns a stream of per-device location reports into
// entry/exit events. It must only ever see one report at a time for a
// given device; the ingestion pipeline guarantees that by serializing
// per device. Concurrent evaluation of different devices is safe.
type DetectorService struct {
	geofenceRepo   interfaces.GeofenceRepository
	membershipRepo interfaces.MembershipRepository
	eventRepo      interfaces.EventRepository
	casRetries     int
}

func NewDetectorService(
	geofenceRepo interfaces.GeofenceRepository,
	membershipRepo interfaces.MembershipRepository,
	eventRepo interfaces.EventRepository,
	casRetries int,
) *DetectorService {
	if casRetries <= 0 {
		casRetries = 3
	}
	return &DetectorService{
		geofenceRepo:   geofenceRepo,
		membershipRepo: membershipRepo,
		eventRepo:      eventRepo,
		casRetries:     casRetries,
	}
}

// Snapshot fetches the geofences active as of "now", not as of any
// report's observedAt: replayed historical points are evaluated against
// current geofence definitions. The ingestion pipeline takes one snapshot
// per ingestion unit (live report or whole batch), never per point, so a
// batch sees a single consistent view.
func (ds *DetectorService) Snapshot(ctx context.Context) ([]models.Geofence, error) {
	return ds.geofenceRepo.GetActive(ctx, time.Now())
}

// Evaluate checks one report against the snapshot and returns the
// membership transitions it caused, in ascending geofence-id order.
// Staleness is gated per geofence, so a report can be stale for one
// geofence and still fresh for another.
func (ds *DetectorService) Evaluate(ctx context.Context, report *models.LocationReport, geofences []models.Geofence) ([]models.GeofenceEvent, error) {
	// Snapshot is already sorted by id; keep the guarantee even for doubles.
	sort.Slice(geofences, func(i, j int) bool {
		return geofences[i].ID.Hex() < geofences[j].ID.Hex()
	})

	var events []models.GeofenceEvent
	for i := range geofences {
		event, err := ds.evaluateGeofence(ctx, report, &geofences[i])
		if err != nil {
			return events, err
		}
		if event != nil {
			events = append(events, *event)
		}
	}

	return events, nil
}

// evaluateGeofence runs the read-modify-write for one (device, geofence)
// pair, retrying on compare-and-set conflicts up to the retry bound.
func (ds *DetectorService) evaluateGeofence(ctx context.Context, report *models.LocationReport, geofence *models.Geofence) (*models.GeofenceEvent, error) {
	var lastErr error
	for attempt := 0; attempt < ds.casRetries; attempt++ {
		event, err := ds.applyReport(ctx, report, geofence)
		if err == nil {
			return event, nil
		}
		if !errors.Is(err, utils.ErrConflict) {
			return nil, err
		}
		lastErr = err
		logrus.Warnf("Membership CAS conflict for device %s geofence %s (attempt %d)",
			report.DeviceID, geofence.ID.Hex(), attempt+1)
	}

	return nil, utils.NewConflictError("membership state write conflict", lastErr)
}

func (ds *DetectorService) applyReport(ctx context.Context, report *models.LocationReport, geofence *models.Geofence) (*models.GeofenceEvent, error) {
	state, err := ds.membershipRepo.Get(ctx, report.DeviceID, geofence.ID.Hex())
	if err != nil {
		return nil, err
	}

	// Stale for this geofence: a report at or before the last applied one
	// must not rewind the pair's history.
	if state != nil && !report.ObservedAt.After(state.LastEventAt) {
		return nil, nil
	}

	isInside := utils.Contains(report.Latitude, report.Longitude, geofence.Shape)
	wasInside := state != nil && state.IsInside

	var expected time.Time
	if state != nil {
		expected = state.LastEventAt
	}

	newState := models.MembershipState{
		DeviceID:    report.DeviceID,
		GeofenceID:  geofence.ID,
		IsInside:    isInside,
		LastEventAt: report.ObservedAt,
	}
	if state != nil {
		newState.ID = state.ID
		newState.EnteredAt = state.EnteredAt
	}

	var event *models.GeofenceEvent
	switch {
	case !wasInside && isInside:
		observedAt := report.ObservedAt
		newState.EnteredAt = &observedAt
		event = &models.GeofenceEvent{
			DeviceID:   report.DeviceID,
			GeofenceID: geofence.ID,
			EventType:  models.GeofenceEventEntry,
			Latitude:   report.Latitude,
			Longitude:  report.Longitude,
			OccurredAt: report.ObservedAt,
		}

	case wasInside && !isInside:
		duration := int64(0)
		if state.EnteredAt != nil {
			duration = int64(report.ObservedAt.Sub(*state.EnteredAt) / time.Minute)
		}
		newState.EnteredAt = nil
		event = &models.GeofenceEvent{
			DeviceID:        report.DeviceID,
			GeofenceID:      geofence.ID,
			EventType:       models.GeofenceEventExit,
			Latitude:        report.Latitude,
			Longitude:       report.Longitude,
			OccurredAt:      report.ObservedAt,
			DurationMinutes: &duration,
		}
	}

	if err := ds.membershipRepo.CompareAndSet(ctx, &newState, expected); err != nil {
		return nil, err
	}

	if event != nil {
		if err := ds.eventRepo.Create(ctx, event); err != nil {
			return nil, err
		}
	}

	return event, nil
}
