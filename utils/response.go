package utils

import (
	"errors"
	"net/http"
	"time"

	"geotrack/models"

	"github.com/gin-gonic/gin"
)

// Success responses
func SuccessResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, models.APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func CreatedResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, models.APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// Error responses
func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Message: message,
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now(),
	})
}

func ValidationErrorResponse(c *gin.Context, validationErrors []ValidationError) {
	c.JSON(http.StatusBadRequest, models.APIResponse{
		Success: false,
		Message: "Validation failed",
		Error: &models.APIError{
			Code:    models.ErrCodeValidation,
			Message: "Validation failed",
			Details: validationErrors,
		},
		Timestamp: time.Now(),
	})
}

func BadRequestResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, models.ErrCodeBadRequest, message, nil)
}

func NotFoundResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, models.ErrCodeNotFound, message, nil)
}

func ConflictResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusConflict, models.ErrCodeConflict, message, nil)
}

func RateLimitResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusTooManyRequests, models.ErrCodeRateLimit, message, nil)
}

func InternalServerErrorResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, models.ErrCodeInternal, message, nil)
}

// ServiceErrorResponse maps a service-layer error onto the API envelope.
func ServiceErrorResponse(c *gin.Context, err error) {
	if serviceErr, ok := GetServiceError(err); ok {
		status := serviceErr.StatusCode
		if status == 0 {
			status = http.StatusInternalServerError
		}
		ErrorResponse(c, status, serviceErr.Code, serviceErr.Message, serviceErr.Details)
		return
	}

	switch {
	case errors.Is(err, ErrNotFound):
		NotFoundResponse(c, "Resource not found")
	case errors.Is(err, ErrConflict):
		ConflictResponse(c, "Conflicting concurrent update")
	case errors.Is(err, ErrDependencyTimeout):
		ErrorResponse(c, http.StatusGatewayTimeout, models.ErrCodeTimeout, "Dependency timeout", nil)
	default:
		InternalServerErrorResponse(c, "Internal server error")
	}
}
