package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the detection path. Repositories translate driver
// errors into these so services can branch with errors.Is.
var (
	// ErrDuplicateReport means a report with the same (deviceId, observedAt)
	// was already persisted. Resubmission is a no-op, not a failure.
	ErrDuplicateReport = errors.New("duplicate location report")

	// ErrConflict means a compare-and-set on membership state lost a race.
	ErrConflict = errors.New("membership state conflict")

	// ErrNotFound means the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDependencyTimeout means a store call did not complete within its
	// bounded timeout.
	ErrDependencyTimeout = errors.New("dependency timeout")
)

// ServiceError represents a service-level error with context
type ServiceError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
	Details    string `json:"details,omitempty"`
	Cause      error  `json:"-"` // Original error, not exposed in JSON
}

func (e ServiceError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e ServiceError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates an error for a malformed report or request.
func NewValidationError(message string) error {
	return ServiceError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewConflictError wraps a compare-and-set mismatch that exhausted its
// retry budget.
func NewConflictError(message string, cause error) error {
	return ServiceError{
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
		Cause:      cause,
	}
}

// NewDependencyTimeoutError wraps a store call that exceeded its bound.
func NewDependencyTimeoutError(message string, cause error) error {
	return ServiceError{
		Code:       "DEPENDENCY_TIMEOUT",
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

func NewNotFoundError(resource string) error {
	return ServiceError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
		Cause:      ErrNotFound,
	}
}

func NewInternalError(message string, cause error) error {
	return ServiceError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// GetServiceError extracts a ServiceError from an error
func GetServiceError(err error) (ServiceError, bool) {
	var serviceErr ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr, true
	}
	return ServiceError{}, false
}
