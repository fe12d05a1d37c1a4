package utils

import (
	"math"

	"geotrack/models"
)

const (
	EarthRadiusM = 6371000.0
	DegToRad     = math.Pi / 180.0
)

// CalculateDistance calculates the distance between two coordinates in
// meters using the Haversine formula.
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * DegToRad
	lon1Rad := lon1 * DegToRad
	lat2Rad := lat2 * DegToRad
	lon2Rad := lon2 * DegToRad

	dlat := lat2Rad - lat1Rad
	dlon := lon2Rad - lon1Rad

	a := math.Sin(dlat/2)*math.Sin(dlat/2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

// IsWithinCircle checks if a coordinate is within a circular geofence.
// A non-positive radius never contains any point.
func IsWithinCircle(lat, lon float64, center models.GeoPoint, radiusM float64) bool {
	if radiusM <= 0 {
		return false
	}
	return CalculateDistance(lat, lon, center.Latitude, center.Longitude) <= radiusM
}

// IsPointInPolygon checks if a point is inside a polygon ring using the
// ray casting algorithm, with longitude as x and latitude as y. The ring
// is implicitly closed. Behavior for a point exactly on an edge is
// undefined. Rings with fewer than 3 vertices never contain any point.
func IsPointInPolygon(lat, lon float64, ring []models.GeoPoint) bool {
	if len(ring) < 3 {
		return false
	}

	x, y := lon, lat
	inside := false

	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		xi, yi := ring[i].Longitude, ring[i].Latitude
		xj, yj := ring[j].Longitude, ring[j].Latitude

		if ((yi > y) != (yj > y)) && (x < (xj-xi)*(y-yi)/(yj-yi)+xi) {
			inside = !inside
		}
		j = i
	}

	return inside
}

// Contains answers whether the point lies inside the shape. Unknown shape
// types and degenerate shapes yield false rather than erroring.
func Contains(lat, lon float64, shape models.GeofenceShape) bool {
	switch shape.Type {
	case models.GeofenceShapeCircle:
		return IsWithinCircle(lat, lon, shape.Center, shape.RadiusMeters)
	case models.GeofenceShapePolygon:
		return IsPointInPolygon(lat, lon, shape.Ring)
	default:
		return false
	}
}

// IsValidCoordinate checks if latitude and longitude values are valid
func IsValidCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
