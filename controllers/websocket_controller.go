package controllers

import (
	"geotrack/utils"
	"geotrack/websocket"

	"github.com/gin-gonic/gin"
)

type WebSocketController struct {
	hub *websocket.Hub
}

func NewWebSocketController(hub *websocket.Hub) *WebSocketController {
	return &WebSocketController{
		hub: hub,
	}
}

// HandleConnection upgrades the request and attaches the subscriber to
// the event fan-out hub.
func (wc *WebSocketController) HandleConnection(c *gin.Context) {
	websocket.ServeWS(wc.hub, c.Writer, c.Request)
}

// GetStats returns fan-out hub statistics
func (wc *WebSocketController) GetStats(c *gin.Context) {
	utils.SuccessResponse(c, "Hub stats retrieved", wc.hub.GetStats())
}
