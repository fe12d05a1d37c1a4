package services

import (
	"context"

	"geotrack/interfaces"
	"geotrack/models"
	"geotrack/utils"
)

// LocationService is the read-only query surface over stored reports,
// events, and membership state.
type LocationService struct {
	locationRepo   interfaces.LocationRepository
	eventRepo      interfaces.EventRepository
	membershipRepo interfaces.MembershipRepository
	deviceRepo     interfaces.DeviceRepository
}

func NewLocationService(
	locationRepo interfaces.LocationRepository,
	eventRepo interfaces.EventRepository,
	membershipRepo interfaces.MembershipRepository,
	deviceRepo interfaces.DeviceRepository,
) *LocationService {
	return &LocationService{
		locationRepo:   locationRepo,
		eventRepo:      eventRepo,
		membershipRepo: membershipRepo,
		deviceRepo:     deviceRepo,
	}
}

func (ls *LocationService) GetCurrentLocation(ctx context.Context, deviceID string) (*models.LocationReport, error) {
	report, err := ls.locationRepo.GetCurrent(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, utils.NewNotFoundError("location")
	}
	return report, nil
}

func (ls *LocationService) GetLocationHistory(ctx context.Context, req models.LocationHistoryRequest) ([]models.LocationReport, error) {
	if req.EndDate.Before(req.StartDate) {
		return nil, utils.NewValidationError("end time must be after start time")
	}

	limit := req.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	return ls.locationRepo.GetHistory(ctx, req.DeviceID, req.StartDate, req.EndDate, limit)
}

func (ls *LocationService) GetDeviceEvents(ctx context.Context, req models.EventHistoryRequest) ([]models.GeofenceEvent, error) {
	return ls.eventRepo.GetDeviceEvents(ctx, req)
}

// GetMembership returns the membership state for a pair; absent state is
// reported as outside, never entered.
func (ls *LocationService) GetMembership(ctx context.Context, deviceID, geofenceID string) (*models.MembershipState, error) {
	state, err := ls.membershipRepo.Get(ctx, deviceID, geofenceID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return &models.MembershipState{
			DeviceID: deviceID,
			IsInside: false,
		}, nil
	}
	return state, nil
}

func (ls *LocationService) GetDeviceLastSeen(ctx context.Context, deviceID string) (*models.Device, error) {
	device, err := ls.deviceRepo.GetLastSeen(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, utils.NewNotFoundError("device")
	}
	return device, nil
}
