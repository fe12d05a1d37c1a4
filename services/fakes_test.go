package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"geotrack/models"
	"geotrack/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory doubles for the store and publisher boundaries. They mirror
// the semantics documented on the interfaces, including the duplicate and
// compare-and-set behavior of the Mongo-backed repositories.

type fakeLocationRepo struct {
	mu      sync.Mutex
	reports map[string]models.LocationReport // deviceId|observedAt
	failing bool
}

func newFakeLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{reports: make(map[string]models.LocationReport)}
}

func locationKey(deviceID string, observedAt time.Time) string {
	return deviceID + "|" + observedAt.UTC().Format(time.RFC3339Nano)
}

func (f *fakeLocationRepo) Create(ctx context.Context, report *models.LocationReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing {
		return context.DeadlineExceeded
	}

	key := locationKey(report.DeviceID, report.ObservedAt)
	if _, exists := f.reports[key]; exists {
		return utils.ErrDuplicateReport
	}
	report.ID = primitive.NewObjectID()
	f.reports[key] = *report
	return nil
}

func (f *fakeLocationRepo) GetCurrent(ctx context.Context, deviceID string) (*models.LocationReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var latest *models.LocationReport
	for _, r := range f.reports {
		if r.DeviceID != deviceID {
			continue
		}
		r := r
		if latest == nil || r.ObservedAt.After(latest.ObservedAt) {
			latest = &r
		}
	}
	return latest, nil
}

func (f *fakeLocationRepo) GetHistory(ctx context.Context, deviceID string, start, end time.Time, limit int) ([]models.LocationReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.LocationReport
	for _, r := range f.reports {
		if r.DeviceID == deviceID && !r.ObservedAt.Before(start) && !r.ObservedAt.After(end) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObservedAt.Before(out[j].ObservedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeLocationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var deleted int64
	for key, r := range f.reports {
		if r.ObservedAt.Before(cutoff) {
			delete(f.reports, key)
			deleted++
		}
	}
	return deleted, nil
}

type fakeGeofenceRepo struct {
	mu        sync.Mutex
	geofences []models.Geofence
}

func newFakeGeofenceRepo(geofences ...models.Geofence) *fakeGeofenceRepo {
	return &fakeGeofenceRepo{geofences: geofences}
}

func (f *fakeGeofenceRepo) Create(ctx context.Context, geofence *models.Geofence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	geofence.ID = primitive.NewObjectID()
	f.geofences = append(f.geofences, *geofence)
	return nil
}

func (f *fakeGeofenceRepo) GetByID(ctx context.Context, id string) (*models.Geofence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.geofences {
		if g.ID.Hex() == id {
			g := g
			return &g, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (f *fakeGeofenceRepo) GetAll(ctx context.Context) ([]models.Geofence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Geofence, len(f.geofences))
	copy(out, f.geofences)
	return out, nil
}

func (f *fakeGeofenceRepo) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return nil
}

func (f *fakeGeofenceRepo) Delete(ctx context.Context, id string) error {
	return nil
}

func (f *fakeGeofenceRepo) GetActive(ctx context.Context, asOf time.Time) ([]models.Geofence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var active []models.Geofence
	for _, g := range f.geofences {
		if g.ActiveAt(asOf) {
			active = append(active, g)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID.Hex() < active[j].ID.Hex() })
	return active, nil
}

func (f *fakeGeofenceRepo) DeactivateExpired(ctx context.Context, asOf time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for i := range f.geofences {
		g := &f.geofences[i]
		if g.IsActive && g.ExpiresAt != nil && !g.ExpiresAt.After(asOf) {
			g.IsActive = false
			count++
		}
	}
	return count, nil
}

type fakeMembershipRepo struct {
	mu     sync.Mutex
	states map[string]models.MembershipState // deviceId|geofenceId

	// conflictsToInject makes the next N CompareAndSet calls fail.
	conflictsToInject int
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{states: make(map[string]models.MembershipState)}
}

func membershipKey(deviceID, geofenceID string) string {
	return deviceID + "|" + geofenceID
}

func (f *fakeMembershipRepo) Get(ctx context.Context, deviceID, geofenceID string) (*models.MembershipState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, ok := f.states[membershipKey(deviceID, geofenceID)]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (f *fakeMembershipRepo) CompareAndSet(ctx context.Context, state *models.MembershipState, expectedLastEventAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conflictsToInject > 0 {
		f.conflictsToInject--
		return utils.ErrConflict
	}

	key := membershipKey(state.DeviceID, state.GeofenceID.Hex())
	existing, exists := f.states[key]

	if expectedLastEventAt.IsZero() {
		if exists {
			return utils.ErrConflict
		}
	} else {
		if !exists || !existing.LastEventAt.Equal(expectedLastEventAt) {
			return utils.ErrConflict
		}
	}

	state.UpdatedAt = time.Now()
	f.states[key] = *state
	return nil
}

func (f *fakeMembershipRepo) CountInside(ctx context.Context, geofenceID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for _, state := range f.states {
		if state.GeofenceID.Hex() == geofenceID && state.IsInside {
			count++
		}
	}
	return count, nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []models.GeofenceEvent
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{}
}

func (f *fakeEventRepo) Create(ctx context.Context, event *models.GeofenceEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event.ID = primitive.NewObjectID()
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeEventRepo) GetDeviceEvents(ctx context.Context, req models.EventHistoryRequest) ([]models.GeofenceEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.GeofenceEvent
	for _, e := range f.events {
		if e.DeviceID != req.DeviceID {
			continue
		}
		if req.GeofenceID != "" && e.GeofenceID.Hex() != req.GeofenceID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func (f *fakeEventRepo) eventsFor(deviceID, geofenceID string) []models.GeofenceEvent {
	out, _ := f.GetDeviceEvents(context.Background(), models.EventHistoryRequest{
		DeviceID:   deviceID,
		GeofenceID: geofenceID,
	})
	return out
}

type fakeDeviceRepo struct {
	mu       sync.Mutex
	lastSeen map[string]time.Time
	touches  int
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{lastSeen: make(map[string]time.Time)}
}

func (f *fakeDeviceRepo) TouchLastSeen(ctx context.Context, deviceID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touches++
	if at.After(f.lastSeen[deviceID]) {
		f.lastSeen[deviceID] = at
	}
	return nil
}

func (f *fakeDeviceRepo) GetLastSeen(ctx context.Context, deviceID string) (*models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	at, ok := f.lastSeen[deviceID]
	if !ok {
		return nil, nil
	}
	return &models.Device{DeviceID: deviceID, LastSeenAt: at}, nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []models.GeofenceEvent
}

func (p *capturePublisher) PublishGeofenceEvent(event models.GeofenceEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) published() []models.GeofenceEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.GeofenceEvent, len(p.events))
	copy(out, p.events)
	return out
}

// Test fixture helpers

func circleGeofence(name string, lat, lon, radiusM float64) models.Geofence {
	return models.Geofence{
		ID:       primitive.NewObjectID(),
		Name:     name,
		IsActive: true,
		Shape: models.GeofenceShape{
			Type:         models.GeofenceShapeCircle,
			Center:       models.GeoPoint{Latitude: lat, Longitude: lon},
			RadiusMeters: radiusM,
		},
	}
}

func polygonGeofence(name string, ring ...models.GeoPoint) models.Geofence {
	return models.Geofence{
		ID:       primitive.NewObjectID(),
		Name:     name,
		IsActive: true,
		Shape: models.GeofenceShape{
			Type: models.GeofenceShapePolygon,
			Ring: ring,
		},
	}
}

func reportAt(deviceID string, lat, lon float64, observedAt time.Time) *models.LocationReport {
	return &models.LocationReport{
		DeviceID:   deviceID,
		Latitude:   lat,
		Longitude:  lon,
		ObservedAt: observedAt,
	}
}
