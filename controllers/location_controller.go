package controllers

import (
	"strconv"
	"time"

	"geotrack/models"
	"geotrack/services"
	"geotrack/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type LocationController struct {
	ingestionService *services.IngestionService
	locationService  *services.LocationService
}

func NewLocationController(ingestionService *services.IngestionService, locationService *services.LocationService) *LocationController {
	return &LocationController{
		ingestionService: ingestionService,
		locationService:  locationService,
	}
}

// ==================== INGESTION ENDPOINTS ====================

// IngestLocation accepts a single live location report
func (lc *LocationController) IngestLocation(c *gin.Context) {
	deviceID := c.Param("deviceId")
	if deviceID == "" {
		utils.BadRequestResponse(c, "Device ID is required")
		return
	}

	var req models.LocationReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid location report")
		return
	}

	result, err := lc.ingestionService.IngestLive(c.Request.Context(), deviceID, req)
	if err != nil {
		logrus.Errorf("Live ingestion failed for device %s: %v", deviceID, err)
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Location report processed", result)
}

// SyncLocations accepts an offline batch of reports for one device
func (lc *LocationController) SyncLocations(c *gin.Context) {
	deviceID := c.Param("deviceId")
	if deviceID == "" {
		utils.BadRequestResponse(c, "Device ID is required")
		return
	}

	var req models.BatchSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid batch sync payload")
		return
	}

	result, err := lc.ingestionService.IngestBatch(c.Request.Context(), deviceID, req)
	if err != nil {
		logrus.Errorf("Batch ingestion failed for device %s: %v", deviceID, err)
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Batch sync processed", result)
}

// ==================== QUERY ENDPOINTS ====================

// GetCurrentLocation gets a device's most recent location
func (lc *LocationController) GetCurrentLocation(c *gin.Context) {
	deviceID := c.Param("deviceId")

	report, err := lc.locationService.GetCurrentLocation(c.Request.Context(), deviceID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Current location retrieved", report)
}

// GetLocationHistory gets a device's location history in a time range
func (lc *LocationController) GetLocationHistory(c *gin.Context) {
	deviceID := c.Param("deviceId")

	startDate, err := time.Parse(time.RFC3339, c.Query("startDate"))
	if err != nil {
		utils.BadRequestResponse(c, "startDate must be an RFC3339 timestamp")
		return
	}
	endDate, err := time.Parse(time.RFC3339, c.Query("endDate"))
	if err != nil {
		utils.BadRequestResponse(c, "endDate must be an RFC3339 timestamp")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	history, err := lc.locationService.GetLocationHistory(c.Request.Context(), models.LocationHistoryRequest{
		DeviceID:  deviceID,
		StartDate: startDate,
		EndDate:   endDate,
		Limit:     limit,
	})
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Location history retrieved", history)
}

// GetDeviceEvents gets a device's geofence event history
func (lc *LocationController) GetDeviceEvents(c *gin.Context) {
	deviceID := c.Param("deviceId")

	req := models.EventHistoryRequest{
		DeviceID:   deviceID,
		GeofenceID: c.Query("geofenceId"),
	}
	if v := c.Query("startDate"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			utils.BadRequestResponse(c, "startDate must be an RFC3339 timestamp")
			return
		}
		req.StartDate = t
	}
	if v := c.Query("endDate"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			utils.BadRequestResponse(c, "endDate must be an RFC3339 timestamp")
			return
		}
		req.EndDate = t
	}
	req.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, err := lc.locationService.GetDeviceEvents(c.Request.Context(), req)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Events retrieved", events)
}

// GetMembership gets the membership state for a (device, geofence) pair
func (lc *LocationController) GetMembership(c *gin.Context) {
	deviceID := c.Param("deviceId")
	geofenceID := c.Param("geofenceId")

	state, err := lc.locationService.GetMembership(c.Request.Context(), deviceID, geofenceID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Membership state retrieved", state)
}

// GetDeviceLastSeen gets the device's last-seen timestamp
func (lc *LocationController) GetDeviceLastSeen(c *gin.Context) {
	deviceID := c.Param("deviceId")

	device, err := lc.locationService.GetDeviceLastSeen(c.Request.Context(), deviceID)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Device retrieved", device)
}
