package interfaces

import "geotrack/models"

// EventPublisher fans detected events out to subscribers. Delivery is
// best-effort and at-most-once: implementations must never block the
// ingestion path or report errors back into it. The websocket hub is the
// production implementation; tests use synchronous capture doubles.
type EventPublisher interface {
	PublishGeofenceEvent(event models.GeofenceEvent)
}
