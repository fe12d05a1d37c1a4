// models/location.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LocationReport is a single device location observation. Immutable once
// stored; the pair (deviceId, observedAt) identifies it, two reports with
// the same pair are duplicates.
type LocationReport struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DeviceID string             `json:"deviceId" bson:"deviceId" validate:"required"`

	// GPS Coordinates
	Latitude       float64 `json:"latitude" bson:"latitude" validate:"gte=-90,lte=90"`
	Longitude      float64 `json:"longitude" bson:"longitude" validate:"gte=-180,lte=180"`
	AccuracyMeters float64 `json:"accuracyMeters" bson:"accuracyMeters"`
	Altitude       float64 `json:"altitude" bson:"altitude"`

	// Movement Data
	Speed   float64 `json:"speed" bson:"speed"`     // m/s
	Bearing float64 `json:"bearing" bson:"bearing"` // degrees 0-360

	// Device Information
	BatteryLevel int    `json:"batteryLevel" bson:"batteryLevel"`
	IsCharging   bool   `json:"isCharging" bson:"isCharging"`
	NetworkType  string `json:"networkType" bson:"networkType"` // wifi, cellular, gps
	Source       string `json:"source" bson:"source"`           // gps, network, passive

	// Timing
	ObservedAt time.Time `json:"observedAt" bson:"observedAt"` // client-supplied timestamp
	ServerTime time.Time `json:"serverTime" bson:"serverTime"` // server received time

	// True when the report was buffered offline and replayed in a batch sync.
	IsReplayed bool `json:"isReplayed" bson:"isReplayed"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Device tracks per-device bookkeeping maintained by the ingestion path.
type Device struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DeviceID   string             `json:"deviceId" bson:"deviceId"`
	LastSeenAt time.Time          `json:"lastSeenAt" bson:"lastSeenAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type LocationReportRequest struct {
	Latitude       float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude      float64 `json:"longitude" validate:"gte=-180,lte=180"`
	AccuracyMeters float64 `json:"accuracyMeters" validate:"gte=0"`
	Altitude       float64 `json:"altitude"`
	Speed          float64 `json:"speed"`
	Bearing        float64 `json:"bearing"`
	BatteryLevel   int     `json:"batteryLevel" validate:"gte=0,lte=100"`
	IsCharging     bool    `json:"isCharging"`
	NetworkType    string  `json:"networkType"`
	Source         string  `json:"source"`
	ObservedAt     string  `json:"observedAt" validate:"required,rfc3339"`
}

type BatchSyncRequest struct {
	Reports []LocationReportRequest `json:"reports" validate:"required,min=1,dive"`
}

type LocationHistoryRequest struct {
	DeviceID  string    `json:"deviceId" validate:"required"`
	StartDate time.Time `json:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" validate:"required"`
	Limit     int       `json:"limit" validate:"min=0,max=1000"`
}

// Ingestion outcomes for a single report.
const (
	ReportStatusProcessed = "processed"
	ReportStatusDuplicate = "duplicate"
	ReportStatusFailed    = "failed"
)

// ReportResult is the per-report outcome of an ingestion call. Batch syncs
// return one entry per submitted report, in evaluation (observedAt) order.
type ReportResult struct {
	ObservedAt time.Time       `json:"observedAt"`
	Status     string          `json:"status"`
	Error      string          `json:"error,omitempty"`
	Events     []GeofenceEvent `json:"events,omitempty"`
}

// BatchSyncResponse summarizes an offline resynchronization.
type BatchSyncResponse struct {
	DeviceID  string         `json:"deviceId"`
	Processed int            `json:"processed"`
	Duplicate int            `json:"duplicate"`
	Failed    int            `json:"failed"`
	Results   []ReportResult `json:"results"`
}
