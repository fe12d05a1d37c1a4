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

type LocationRepository struct {
	collection *mongo.Collection
}

func NewLocationRepository(db *mongo.Database) *LocationRepository {
	return &LocationRepository{
		collection: db.Collection("location_reports"),
	}
}

// Create persists a raw location report. The collection carries a unique
// index on (deviceId, observedAt); inserting a report that was already
// stored returns utils.ErrDuplicateReport so callers can treat retries as
// no-ops.
func (lr *LocationRepository) Create(ctx context.Context, report *models.LocationReport) error {
	report.ID = primitive.NewObjectID()
	report.ServerTime = time.Now()
	report.CreatedAt = time.Now()

	_, err := lr.collection.InsertOne(ctx, report)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.ErrDuplicateReport
		}
		return err
	}
	return nil
}

// GetCurrent returns the most recent report for the device, nil when the
// device has never reported.
func (lr *LocationRepository) GetCurrent(ctx context.Context, deviceID string) (*models.LocationReport, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "observedAt", Value: -1}})

	var report models.LocationReport
	err := lr.collection.FindOne(ctx, bson.M{"deviceId": deviceID}, opts).Decode(&report)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &report, nil
}

func (lr *LocationRepository) GetHistory(ctx context.Context, deviceID string, start, end time.Time, limit int) ([]models.LocationReport, error) {
	filter := bson.M{
		"deviceId":   deviceID,
		"observedAt": bson.M{"$gte": start, "$lte": end},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "observedAt", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := lr.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reports []models.LocationReport
	err = cursor.All(ctx, &reports)
	return reports, err
}

// DeleteOlderThan removes raw reports past the retention window.
func (lr *LocationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := lr.collection.DeleteMany(ctx, bson.M{
		"observedAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
