package services

import (
	"context"
	"time"

	"geotrack/interfaces"
	"geotrack/models"
	"geotrack/utils"
)

// GeofenceService owns the admin surface for geofence definitions and the
// read-only active snapshot the detector evaluates against. The detection
// path never mutates geofences.
type GeofenceService struct {
	geofenceRepo   interfaces.GeofenceRepository
	membershipRepo interfaces.MembershipRepository
	validator      *utils.ValidationService
}

func NewGeofenceService(geofenceRepo interfaces.GeofenceRepository, membershipRepo interfaces.MembershipRepository) *GeofenceService {
	return &GeofenceService{
		geofenceRepo:   geofenceRepo,
		membershipRepo: membershipRepo,
		validator:      utils.NewValidationService(),
	}
}

// GetActiveGeofences returns the snapshot of geofences active as of the
// given time, one fetch per ingestion unit.
func (gs *GeofenceService) GetActiveGeofences(ctx context.Context, asOf time.Time) ([]models.Geofence, error) {
	return gs.geofenceRepo.GetActive(ctx, asOf)
}

func (gs *GeofenceService) CreateGeofence(ctx context.Context, req models.CreateGeofenceRequest) (*models.Geofence, error) {
	if validationErrors := gs.validator.ValidateStruct(req); len(validationErrors) > 0 {
		return nil, utils.NewValidationError(validationErrors[0].Message)
	}
	if err := validateShape(req.Shape); err != nil {
		return nil, err
	}

	geofence := models.Geofence{
		Name:      req.Name,
		Shape:     req.Shape,
		IsActive:  true,
		ExpiresAt: req.ExpiresAt,
	}

	if err := gs.geofenceRepo.Create(ctx, &geofence); err != nil {
		return nil, err
	}

	return &geofence, nil
}

func (gs *GeofenceService) GetGeofence(ctx context.Context, id string) (*models.Geofence, error) {
	return gs.geofenceRepo.GetByID(ctx, id)
}

func (gs *GeofenceService) ListGeofences(ctx context.Context) ([]models.Geofence, error) {
	return gs.geofenceRepo.GetAll(ctx)
}

func (gs *GeofenceService) UpdateGeofence(ctx context.Context, id string, req models.UpdateGeofenceRequest) (*models.Geofence, error) {
	if validationErrors := gs.validator.ValidateStruct(req); len(validationErrors) > 0 {
		return nil, utils.NewValidationError(validationErrors[0].Message)
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Shape != nil {
		if err := validateShape(*req.Shape); err != nil {
			return nil, err
		}
		updates["shape"] = *req.Shape
	}
	if req.IsActive != nil {
		updates["isActive"] = *req.IsActive
	}
	if req.ExpiresAt != nil {
		updates["expiresAt"] = *req.ExpiresAt
	}

	if len(updates) == 0 {
		return nil, utils.NewValidationError("no fields to update")
	}

	if err := gs.geofenceRepo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	return gs.geofenceRepo.GetByID(ctx, id)
}

func (gs *GeofenceService) DeleteGeofence(ctx context.Context, id string) error {
	return gs.geofenceRepo.Delete(ctx, id)
}

// CountDevicesInside reports how many devices currently show inside the
// geofence.
func (gs *GeofenceService) CountDevicesInside(ctx context.Context, geofenceID string) (int64, error) {
	return gs.membershipRepo.CountInside(ctx, geofenceID)
}

// validateShape rejects admin input the engine could not meaningfully
// evaluate. Degenerate shapes that slip in anyway (edited storage) still
// never match any point, they just never get created through this path.
func validateShape(shape models.GeofenceShape) error {
	switch shape.Type {
	case models.GeofenceShapeCircle:
		if shape.RadiusMeters <= 0 {
			return utils.NewValidationError("circle radius must be positive")
		}
		if !utils.IsValidCoordinate(shape.Center.Latitude, shape.Center.Longitude) {
			return utils.NewValidationError("circle center out of range")
		}
	case models.GeofenceShapePolygon:
		if len(shape.Ring) < 3 {
			return utils.NewValidationError("polygon ring needs at least 3 vertices")
		}
		for _, p := range shape.Ring {
			if !utils.IsValidCoordinate(p.Latitude, p.Longitude) {
				return utils.NewValidationError("polygon vertex out of range")
			}
		}
	default:
		return utils.NewValidationError("unknown shape type")
	}
	return nil
}
