// models/websocket.go
package models

import "time"

// WSMessage is the envelope for every message pushed to websocket clients.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

const (
	WSTypeGeofenceEvent = "geofence_event"
	WSTypeSubscribed    = "subscribed"
	WSTypeError         = "error"
)

// WSSubscribeRequest is sent by a client to follow one or more devices.
type WSSubscribeRequest struct {
	DeviceIDs []string `json:"deviceIds"`
}

// WSGeofenceEvent is the fan-out payload for a detected transition.
type WSGeofenceEvent struct {
	DeviceID        string    `json:"deviceId"`
	GeofenceID      string    `json:"geofenceId"`
	EventType       string    `json:"eventType"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	OccurredAt      time.Time `json:"occurredAt"`
	DurationMinutes *int64    `json:"durationMinutes,omitempty"`
}

type WSHubStats struct {
	ActiveConnections int       `json:"activeConnections"`
	TotalConnections  int64     `json:"totalConnections"`
	EventsPublished   int64     `json:"eventsPublished"`
	StartTime         time.Time `json:"startTime"`
}
