// models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GeofenceEventType string

const (
	GeofenceEventEntry GeofenceEventType = "entry"
	GeofenceEventExit  GeofenceEventType = "exit"
)

// GeofenceEvent records one detected membership transition. Events are
// append-only; for a given (device, geofence) pair the emitted sequence
// strictly alternates entry, exit, entry, ... starting with entry.
type GeofenceEvent struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DeviceID   string             `json:"deviceId" bson:"deviceId"`
	GeofenceID primitive.ObjectID `json:"geofenceId" bson:"geofenceId"`
	EventType  GeofenceEventType  `json:"eventType" bson:"eventType"`
	Latitude   float64            `json:"latitude" bson:"latitude"`
	Longitude  float64            `json:"longitude" bson:"longitude"`
	OccurredAt time.Time          `json:"occurredAt" bson:"occurredAt"`

	// Whole minutes between entry and exit, floor. Exit events only.
	DurationMinutes *int64 `json:"durationMinutes,omitempty" bson:"durationMinutes,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type EventHistoryRequest struct {
	DeviceID   string    `json:"deviceId" validate:"required"`
	GeofenceID string    `json:"geofenceId,omitempty"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	Limit      int       `json:"limit" validate:"min=0,max=1000"`
}
