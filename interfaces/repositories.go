package interfaces

import (
	"context"
	"time"

	"geotrack/models"
)

// Store contracts consumed by the detection engine. The Mongo-backed
// implementations live in the repositories package; tests substitute
// in-memory doubles.

type LocationRepository interface {
	// Create persists a raw report. Returns utils.ErrDuplicateReport when a
	// report with the same (deviceId, observedAt) already exists.
	Create(ctx context.Context, report *models.LocationReport) error
	GetCurrent(ctx context.Context, deviceID string) (*models.LocationReport, error)
	GetHistory(ctx context.Context, deviceID string, start, end time.Time, limit int) ([]models.LocationReport, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type GeofenceRepository interface {
	Create(ctx context.Context, geofence *models.Geofence) error
	GetByID(ctx context.Context, id string) (*models.Geofence, error)
	GetAll(ctx context.Context) ([]models.Geofence, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, id string) error

	// GetActive returns geofences active as of the given time, sorted by id
	// ascending.
	GetActive(ctx context.Context, asOf time.Time) ([]models.Geofence, error)

	// DeactivateExpired flips isActive off for geofences whose expiresAt has
	// passed, returning how many were flipped.
	DeactivateExpired(ctx context.Context, asOf time.Time) (int64, error)
}

type MembershipRepository interface {
	// Get returns nil without error when no state exists for the pair.
	Get(ctx context.Context, deviceID, geofenceID string) (*models.MembershipState, error)

	// CompareAndSet writes the state only if the stored lastEventAt still
	// equals expectedLastEventAt (zero time means "no state exists yet").
	// Returns utils.ErrConflict on mismatch.
	CompareAndSet(ctx context.Context, state *models.MembershipState, expectedLastEventAt time.Time) error

	CountInside(ctx context.Context, geofenceID string) (int64, error)
}

type EventRepository interface {
	Create(ctx context.Context, event *models.GeofenceEvent) error
	GetDeviceEvents(ctx context.Context, req models.EventHistoryRequest) ([]models.GeofenceEvent, error)
}

type DeviceRepository interface {
	// TouchLastSeen records device activity; called once per ingestion unit
	// with the maximum observedAt in that unit.
	TouchLastSeen(ctx context.Context, deviceID string, at time.Time) error
	GetLastSeen(ctx context.Context, deviceID string) (*models.Device, error)
}
