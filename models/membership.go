// models/membership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MembershipState is the last-known inside/outside status of one
// (device, geofence) pair. Created on the pair's first evaluation,
// whether inside or outside, and kept indefinitely; EnteredAt drives
// dwell duration on the eventual exit. Absent state means the pair has
// never been evaluated and reads as outside.
//
// LastEventAt is the observedAt of the most recent report applied to this
// pair. It is the compare-and-set guard: a write only succeeds when the
// stored value still matches what the writer read, which rejects stale
// out-of-order writes.
type MembershipState struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DeviceID    string             `json:"deviceId" bson:"deviceId"`
	GeofenceID  primitive.ObjectID `json:"geofenceId" bson:"geofenceId"`
	IsInside    bool               `json:"isInside" bson:"isInside"`
	LastEventAt time.Time          `json:"lastEventAt" bson:"lastEventAt"`
	EnteredAt   *time.Time         `json:"enteredAt,omitempty" bson:"enteredAt,omitempty"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}
