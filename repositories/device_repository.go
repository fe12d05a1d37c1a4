package repositories

import (
	"context"
	"fmt"
	"time"

	"geotrack/models"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const lastSeenCacheTTL = 24 * time.Hour

type DeviceRepository struct {
	collection *mongo.Collection
	redis      *redis.Client
}

func NewDeviceRepository(db *mongo.Database, redisClient *redis.Client) *DeviceRepository {
	return &DeviceRepository{
		collection: db.Collection("devices"),
		redis:      redisClient,
	}
}

// TouchLastSeen upserts the device's last-seen timestamp, only ever moving
// it forward. Called once per ingestion unit with the unit's maximum
// observedAt. The Redis write-through is best-effort; Mongo is the source
// of truth.
func (dr *DeviceRepository) TouchLastSeen(ctx context.Context, deviceID string, at time.Time) error {
	filter := bson.M{
		"deviceId": deviceID,
		"$or": []bson.M{
			{"lastSeenAt": bson.M{"$lt": at}},
			{"lastSeenAt": bson.M{"$exists": false}},
		},
	}

	update := bson.M{
		"$set":         bson.M{"lastSeenAt": at, "updatedAt": time.Now()},
		"$setOnInsert": bson.M{"deviceId": deviceID},
	}

	opts := options.Update().SetUpsert(true)
	_, err := dr.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		// A duplicate key here means a newer touch won the upsert race.
		return err
	}

	if dr.redis != nil {
		key := fmt.Sprintf("device:last_seen:%s", deviceID)
		if err := dr.redis.Set(ctx, key, at.Format(time.RFC3339Nano), lastSeenCacheTTL).Err(); err != nil {
			logrus.Warnf("Failed to cache last seen for device %s: %v", deviceID, err)
		}
	}

	return nil
}

func (dr *DeviceRepository) GetLastSeen(ctx context.Context, deviceID string) (*models.Device, error) {
	if dr.redis != nil {
		key := fmt.Sprintf("device:last_seen:%s", deviceID)
		if cached, err := dr.redis.Get(ctx, key).Result(); err == nil {
			if at, parseErr := time.Parse(time.RFC3339Nano, cached); parseErr == nil {
				return &models.Device{DeviceID: deviceID, LastSeenAt: at}, nil
			}
		}
	}

	var device models.Device
	err := dr.collection.FindOne(ctx, bson.M{"deviceId": deviceID}).Decode(&device)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &device, nil
}
