package utils

import (
	"testing"

	"geotrack/models"

	"github.com/stretchr/testify/assert"
)

func TestCalculateDistance(t *testing.T) {
	// One degree of longitude at the equator is about 111.19 km.
	d := CalculateDistance(0, 0, 0, 1)
	assert.InDelta(t, 111194.9, d, 10)

	assert.Zero(t, CalculateDistance(37.7749, -122.4194, 37.7749, -122.4194))

	// Symmetric.
	assert.InDelta(t,
		CalculateDistance(37.7749, -122.4194, 40.7128, -74.0060),
		CalculateDistance(40.7128, -74.0060, 37.7749, -122.4194),
		0.001)
}

func TestIsWithinCircleBoundary(t *testing.T) {
	center := models.GeoPoint{Latitude: 0, Longitude: 0}

	// Center is always inside a positive-radius circle.
	assert.True(t, IsWithinCircle(0, 0, center, 1000))

	// 0.0089 deg of longitude at the equator is ~989 m, 0.0091 is ~1012 m.
	assert.True(t, IsWithinCircle(0, 0.0089, center, 1000))
	assert.False(t, IsWithinCircle(0, 0.0091, center, 1000))
}

func TestIsWithinCircleDegenerateRadius(t *testing.T) {
	center := models.GeoPoint{Latitude: 10, Longitude: 10}

	// Zero and negative radii contain nothing, not even the center itself.
	assert.False(t, IsWithinCircle(10, 10, center, 0))
	assert.False(t, IsWithinCircle(10, 10, center, -5))
}

func TestIsPointInPolygon(t *testing.T) {
	square := []models.GeoPoint{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 10},
		{Latitude: 10, Longitude: 10},
		{Latitude: 10, Longitude: 0},
	}

	assert.True(t, IsPointInPolygon(5, 5, square))
	assert.False(t, IsPointInPolygon(15, 5, square))
	assert.False(t, IsPointInPolygon(5, 15, square))
	assert.False(t, IsPointInPolygon(-1, -1, square))
}

func TestIsPointInPolygonConcave(t *testing.T) {
	// L-shape missing its upper-right quadrant.
	lShape := []models.GeoPoint{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 10},
		{Latitude: 5, Longitude: 10},
		{Latitude: 5, Longitude: 5},
		{Latitude: 10, Longitude: 5},
		{Latitude: 10, Longitude: 0},
	}

	assert.True(t, IsPointInPolygon(2, 2, lShape))
	assert.True(t, IsPointInPolygon(8, 2, lShape))
	assert.False(t, IsPointInPolygon(8, 8, lShape))
}

func TestIsPointInPolygonDegenerateRing(t *testing.T) {
	assert.False(t, IsPointInPolygon(5, 5, nil))
	assert.False(t, IsPointInPolygon(5, 5, []models.GeoPoint{{Latitude: 5, Longitude: 5}}))
	assert.False(t, IsPointInPolygon(5, 5, []models.GeoPoint{
		{Latitude: 0, Longitude: 0},
		{Latitude: 10, Longitude: 10},
	}))
}

func TestContains(t *testing.T) {
	circle := models.GeofenceShape{
		Type:         models.GeofenceShapeCircle,
		Center:       models.GeoPoint{Latitude: 37.7749, Longitude: -122.4194},
		RadiusMeters: 500,
	}
	assert.True(t, Contains(37.7749, -122.4194, circle))
	assert.False(t, Contains(37.80, -122.40, circle))

	polygon := models.GeofenceShape{
		Type: models.GeofenceShapePolygon,
		Ring: []models.GeoPoint{
			{Latitude: 0, Longitude: 0},
			{Latitude: 0, Longitude: 10},
			{Latitude: 10, Longitude: 10},
			{Latitude: 10, Longitude: 0},
		},
	}
	assert.True(t, Contains(5, 5, polygon))
	assert.False(t, Contains(15, 5, polygon))

	unknown := models.GeofenceShape{Type: "sphere"}
	assert.False(t, Contains(5, 5, unknown))
}

func TestIsValidCoordinate(t *testing.T) {
	assert.True(t, IsValidCoordinate(0, 0))
	assert.True(t, IsValidCoordinate(90, 180))
	assert.True(t, IsValidCoordinate(-90, -180))
	assert.False(t, IsValidCoordinate(90.1, 0))
	assert.False(t, IsValidCoordinate(0, -180.1))
}
