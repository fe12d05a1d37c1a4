package services

import (
	"context"
	"testing"
	"time"

	"geotrack/models"
	"geotrack/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGeofenceRejectsDegenerateShapes(t *testing.T) {
	service := NewGeofenceService(newFakeGeofenceRepo(), newFakeMembershipRepo())
	ctx := context.Background()

	cases := []struct {
		name  string
		shape models.GeofenceShape
	}{
		{"zero radius circle", models.GeofenceShape{
			Type:   models.GeofenceShapeCircle,
			Center: models.GeoPoint{Latitude: 10, Longitude: 10},
		}},
		{"negative radius circle", models.GeofenceShape{
			Type:         models.GeofenceShapeCircle,
			Center:       models.GeoPoint{Latitude: 10, Longitude: 10},
			RadiusMeters: -1,
		}},
		{"center out of range", models.GeofenceShape{
			Type:         models.GeofenceShapeCircle,
			Center:       models.GeoPoint{Latitude: 95, Longitude: 10},
			RadiusMeters: 100,
		}},
		{"two vertex ring", models.GeofenceShape{
			Type: models.GeofenceShapePolygon,
			Ring: []models.GeoPoint{{Latitude: 0, Longitude: 0}, {Latitude: 1, Longitude: 1}},
		}},
		{"vertex out of range", models.GeofenceShape{
			Type: models.GeofenceShapePolygon,
			Ring: []models.GeoPoint{
				{Latitude: 0, Longitude: 0},
				{Latitude: 1, Longitude: 181},
				{Latitude: 1, Longitude: 0},
			},
		}},
		{"unknown type", models.GeofenceShape{Type: "circle "}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.CreateGeofence(ctx, models.CreateGeofenceRequest{
				Name:  "bad",
				Shape: tc.shape,
			})
			require.Error(t, err)
			serviceErr, ok := utils.GetServiceError(err)
			require.True(t, ok)
			assert.Equal(t, models.ErrCodeValidation, serviceErr.Code)
		})
	}
}

func TestCreateGeofenceDefaultsActive(t *testing.T) {
	repo := newFakeGeofenceRepo()
	service := NewGeofenceService(repo, newFakeMembershipRepo())

	created, err := service.CreateGeofence(context.Background(), models.CreateGeofenceRequest{
		Name: "warehouse",
		Shape: models.GeofenceShape{
			Type:         models.GeofenceShapeCircle,
			Center:       models.GeoPoint{Latitude: 37.7749, Longitude: -122.4194},
			RadiusMeters: 500,
		},
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	assert.False(t, created.ID.IsZero())
}

func TestGetActiveGeofencesExcludesExpired(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := circleGeofence("expired", 10, 10, 500)
	expired.ExpiresAt = &past
	upcoming := circleGeofence("upcoming", 10, 10, 500)
	upcoming.ExpiresAt = &future
	open := circleGeofence("open", 10, 10, 500)

	service := NewGeofenceService(newFakeGeofenceRepo(expired, upcoming, open), newFakeMembershipRepo())

	active, err := service.GetActiveGeofences(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, g := range active {
		assert.NotEqual(t, "expired", g.Name)
	}
}

func TestCountDevicesInside(t *testing.T) {
	fence := circleGeofence("warehouse", 10, 10, 500)
	membershipRepo := newFakeMembershipRepo()
	service := NewGeofenceService(newFakeGeofenceRepo(fence), membershipRepo)

	membershipRepo.states[membershipKey("device-1", fence.ID.Hex())] = models.MembershipState{
		DeviceID: "device-1", GeofenceID: fence.ID, IsInside: true,
	}
	membershipRepo.states[membershipKey("device-2", fence.ID.Hex())] = models.MembershipState{
		DeviceID: "device-2", GeofenceID: fence.ID, IsInside: false,
	}

	count, err := service.CountDevicesInside(context.Background(), fence.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUpdateGeofenceRequiresFields(t *testing.T) {
	service := NewGeofenceService(newFakeGeofenceRepo(), newFakeMembershipRepo())

	_, err := service.UpdateGeofence(context.Background(), "any", models.UpdateGeofenceRequest{})
	require.Error(t, err)
	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, models.ErrCodeValidation, serviceErr.Code)
}
