// models/geofence.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GeofenceShapeType string

const (
	GeofenceShapeCircle  GeofenceShapeType = "circle"
	GeofenceShapePolygon GeofenceShapeType = "polygon"
)

// GeoPoint is a single (lat, lng) vertex.
type GeoPoint struct {
	Latitude  float64 `json:"latitude" bson:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" bson:"longitude" validate:"gte=-180,lte=180"`
}

// GeofenceShape is a tagged union over circle and polygon regions. For
// circles Center and RadiusMeters are set; for polygons Ring holds the
// ordered vertices of an implicitly closed ring. Rings are assumed simple
// (non-self-intersecting) and are not validated; a malformed ring yields
// undefined but non-crashing containment results.
type GeofenceShape struct {
	Type         GeofenceShapeType `json:"type" bson:"type" validate:"required,oneof=circle polygon"`
	Center       GeoPoint          `json:"center,omitempty" bson:"center,omitempty"`
	RadiusMeters float64           `json:"radiusMeters,omitempty" bson:"radiusMeters,omitempty"`
	Ring         []GeoPoint        `json:"ring,omitempty" bson:"ring,omitempty"`
}

// Geofence is a trigger boundary. It is active at time T iff IsActive is
// true and ExpiresAt is unset or after T. The detection engine only ever
// reads geofences; all mutation goes through the admin endpoints.
type Geofence struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name" validate:"required"`
	Shape     GeofenceShape      `json:"shape" bson:"shape" validate:"required"`
	IsActive  bool               `json:"isActive" bson:"isActive"`
	ExpiresAt *time.Time         `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ActiveAt reports whether the geofence should be evaluated at time t.
func (g *Geofence) ActiveAt(t time.Time) bool {
	if !g.IsActive {
		return false
	}
	return g.ExpiresAt == nil || g.ExpiresAt.After(t)
}

type CreateGeofenceRequest struct {
	Name      string        `json:"name" validate:"required,min=1,max=100"`
	Shape     GeofenceShape `json:"shape" validate:"required"`
	ExpiresAt *time.Time    `json:"expiresAt,omitempty"`
}

type UpdateGeofenceRequest struct {
	Name      *string        `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Shape     *GeofenceShape `json:"shape,omitempty"`
	IsActive  *bool          `json:"isActive,omitempty"`
	ExpiresAt *time.Time     `json:"expiresAt,omitempty"`
}
