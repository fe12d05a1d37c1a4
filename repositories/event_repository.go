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

type EventRepository struct {
	collection *mongo.Collection
}

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{
		collection: db.Collection("geofence_events"),
	}
}

// Create appends a detected event to the log. Events are never updated.
func (er *EventRepository) Create(ctx context.Context, event *models.GeofenceEvent) error {
	event.ID = primitive.NewObjectID()
	event.CreatedAt = time.Now()

	_, err := er.collection.InsertOne(ctx, event)
	return err
}

func (er *EventRepository) GetDeviceEvents(ctx context.Context, req models.EventHistoryRequest) ([]models.GeofenceEvent, error) {
	filter := bson.M{"deviceId": req.DeviceID}

	if req.GeofenceID != "" {
		objectID, err := primitive.ObjectIDFromHex(req.GeofenceID)
		if err != nil {
			return nil, utils.NewValidationError("invalid geofence ID")
		}
		filter["geofenceId"] = objectID
	}

	if !req.StartDate.IsZero() || !req.EndDate.IsZero() {
		timeFilter := bson.M{}
		if !req.StartDate.IsZero() {
			timeFilter["$gte"] = req.StartDate
		}
		if !req.EndDate.IsZero() {
			timeFilter["$lte"] = req.EndDate
		}
		filter["occurredAt"] = timeFilter
	}

	limit := req.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "occurredAt", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := er.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []models.GeofenceEvent
	err = cursor.All(ctx, &events)
	return events, err
}
