package repositories

import (
	"context"
	"time"

	"geotrack/models"
	"geotrack/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type MembershipRepository struct {
	collection *mongo.Collection
}

func NewMembershipRepository(db *mongo.Database) *MembershipRepository {
	return &MembershipRepository{
		collection: db.Collection("membership_states"),
	}
}

// Get returns the membership state for a (device, geofence) pair, or nil
// when the pair has never been evaluated.
func (mr *MembershipRepository) Get(ctx context.Context, deviceID, geofenceID string) (*models.MembershipState, error) {
	objectID, err := primitive.ObjectIDFromHex(geofenceID)
	if err != nil {
		return nil, utils.NewValidationError("invalid geofence ID")
	}

	var state models.MembershipState
	err = mr.collection.FindOne(ctx, bson.M{
		"deviceId":   deviceID,
		"geofenceId": objectID,
	}).Decode(&state)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &state, nil
}

// CompareAndSet writes the state only if the stored lastEventAt still
// equals expectedLastEventAt. A zero expectedLastEventAt asserts that no
// state exists yet and takes the insert path; the unique index on
// (deviceId, geofenceId) turns a concurrent insert into ErrConflict.
// The detector relies on this to reject stale writes that would reorder
// a device's evaluation history.
func (mr *MembershipRepository) CompareAndSet(ctx context.Context, state *models.MembershipState, expectedLastEventAt time.Time) error {
	state.UpdatedAt = time.Now()

	if expectedLastEventAt.IsZero() {
		state.ID = primitive.NewObjectID()
		_, err := mr.collection.InsertOne(ctx, state)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return utils.ErrConflict
			}
			return err
		}
		return nil
	}

	filter := bson.M{
		"deviceId":    state.DeviceID,
		"geofenceId":  state.GeofenceID,
		"lastEventAt": expectedLastEventAt,
	}

	update := bson.M{"$set": bson.M{
		"isInside":    state.IsInside,
		"lastEventAt": state.LastEventAt,
		"enteredAt":   state.EnteredAt,
		"updatedAt":   state.UpdatedAt,
	}}

	result, err := mr.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.ErrConflict
	}
	return nil
}

// CountInside reports how many devices are currently marked inside the
// geofence. Used by the expiry sweep to log memberships left dangling.
func (mr *MembershipRepository) CountInside(ctx context.Context, geofenceID string) (int64, error) {
	objectID, err := primitive.ObjectIDFromHex(geofenceID)
	if err != nil {
		return 0, utils.NewValidationError("invalid geofence ID")
	}

	return mr.collection.CountDocuments(ctx, bson.M{
		"geofenceId": objectID,
		"isInside":   true,
	})
}
