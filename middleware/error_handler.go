package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"geotrack/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ErrorHandler provides centralized panic recovery. Nothing in the engine
// is permitted to crash the process; a panic becomes a 500 response.
type ErrorHandler struct {
	environment string
	logger      *logrus.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(environment string, logger *logrus.Logger) *ErrorHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ErrorHandler{
		environment: environment,
		logger:      logger,
	}
}

// Handle returns the error handling middleware
func (eh *ErrorHandler) Handle() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				eh.handlePanic(c, err)
			}
		}()

		c.Next()
	})
}

func (eh *ErrorHandler) handlePanic(c *gin.Context, err interface{}) {
	eh.logger.WithFields(logrus.Fields{
		"panic":      err,
		"stack":      string(debug.Stack()),
		"request_id": c.GetString("request_id"),
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
	}).Error("Panic recovered")

	response := models.APIResponse{
		Success: false,
		Message: "Internal server error",
		Error: &models.APIError{
			Code:    models.ErrCodeInternal,
			Message: "Internal server error",
		},
		Timestamp: time.Now(),
	}

	if eh.environment == "development" {
		response.Error.Details = map[string]interface{}{
			"panic": err,
			"stack": string(debug.Stack()),
		}
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, response)
}
