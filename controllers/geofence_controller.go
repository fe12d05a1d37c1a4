package controllers

import (
	"geotrack/models"
	"geotrack/services"
	"geotrack/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type GeofenceController struct {
	geofenceService *services.GeofenceService
}

func NewGeofenceController(geofenceService *services.GeofenceService) *GeofenceController {
	return &GeofenceController{
		geofenceService: geofenceService,
	}
}

// CreateGeofence creates a new geofence
func (gc *GeofenceController) CreateGeofence(c *gin.Context) {
	var req models.CreateGeofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid geofence data")
		return
	}

	geofence, err := gc.geofenceService.CreateGeofence(c.Request.Context(), req)
	if err != nil {
		logrus.Errorf("Create geofence failed: %v", err)
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "Geofence created", geofence)
}

// GetGeofence returns one geofence by ID
func (gc *GeofenceController) GetGeofence(c *gin.Context) {
	geofence, err := gc.geofenceService.GetGeofence(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Geofence retrieved", geofence)
}

// ListGeofences returns all geofences
func (gc *GeofenceController) ListGeofences(c *gin.Context) {
	geofences, err := gc.geofenceService.ListGeofences(c.Request.Context())
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Geofences retrieved", geofences)
}

// UpdateGeofence updates a geofence's definition
func (gc *GeofenceController) UpdateGeofence(c *gin.Context) {
	var req models.UpdateGeofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid geofence data")
		return
	}

	geofence, err := gc.geofenceService.UpdateGeofence(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Geofence updated", geofence)
}

// DeleteGeofence removes a geofence
func (gc *GeofenceController) DeleteGeofence(c *gin.Context) {
	if err := gc.geofenceService.DeleteGeofence(c.Request.Context(), c.Param("id")); err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Geofence deleted", nil)
}

// GetGeofenceOccupancy reports how many devices are currently inside
func (gc *GeofenceController) GetGeofenceOccupancy(c *gin.Context) {
	count, err := gc.geofenceService.CountDevicesInside(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.ServiceErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "Occupancy retrieved", gin.H{"devicesInside": count})
}
