package repositories

import (
	"context"
	"time"

	"geotrack/models"
	"geotrack/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type GeofenceRepository struct {
	collection *mongo.Collection
}

func NewGeofenceRepository(db *mongo.Database) *GeofenceRepository {
	return &GeofenceRepository{
		collection: db.Collection("geofences"),
	}
}

func (gr *GeofenceRepository) Create(ctx context.Context, geofence *models.Geofence) error {
	geofence.ID = primitive.NewObjectID()
	geofence.CreatedAt = time.Now()
	geofence.UpdatedAt = time.Now()

	_, err := gr.collection.InsertOne(ctx, geofence)
	return err
}

func (gr *GeofenceRepository) GetByID(ctx context.Context, id string) (*models.Geofence, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, utils.NewValidationError("invalid geofence ID")
	}

	var geofence models.Geofence
	err = gr.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&geofence)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}

	return &geofence, nil
}

func (gr *GeofenceRepository) GetAll(ctx context.Context) ([]models.Geofence, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := gr.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var geofences []models.Geofence
	err = cursor.All(ctx, &geofences)
	return geofences, err
}

// GetActive returns geofences active as of the given instant: isActive set
// and expiresAt absent or still in the future. Sorted by id ascending so
// evaluation order, and therefore emitted event order, is deterministic.
func (gr *GeofenceRepository) GetActive(ctx context.Context, asOf time.Time) ([]models.Geofence, error) {
	filter := bson.M{
		"isActive": true,
		"$or": []bson.M{
			{"expiresAt": bson.M{"$exists": false}},
			{"expiresAt": nil},
			{"expiresAt": bson.M{"$gt": asOf}},
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := gr.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var geofences []models.Geofence
	err = cursor.All(ctx, &geofences)
	return geofences, err
}

func (gr *GeofenceRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return utils.NewValidationError("invalid geofence ID")
	}

	updates["updatedAt"] = time.Now()

	result, err := gr.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": updates})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (gr *GeofenceRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return utils.NewValidationError("invalid geofence ID")
	}

	result, err := gr.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

// DeactivateExpired flips isActive off on geofences whose expiry has
// passed. Membership rows pointing at them are left as-is: no synthetic
// exit is emitted on expiry, exits come only from later location reports.
func (gr *GeofenceRepository) DeactivateExpired(ctx context.Context, asOf time.Time) (int64, error) {
	filter := bson.M{
		"isActive":  true,
		"expiresAt": bson.M{"$ne": nil, "$lte": asOf},
	}

	result, err := gr.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{
		"isActive":  false,
		"updatedAt": time.Now(),
	}})
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}
