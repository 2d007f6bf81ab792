// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/style-studio/backend/internal/logging"
)

// Error codes returned in the "code" field.
const (
	CodeNoFile          = "NO_FILE"
	CodeNoFileSelected  = "NO_FILE_SELECTED"
	CodeInvalidFileType = "INVALID_FILE_TYPE"
	CodeInvalidStyle    = "INVALID_STYLE"
	CodeProcessing      = "PROCESSING_FAILED"
	CodeNotFound        = "NOT_FOUND"
	CodeForbidden       = "FORBIDDEN"
	CodeRateLimited     = "RATE_LIMITED"
	CodeTooLarge        = "FILE_TOO_LARGE"
	CodeUnavailable     = "SERVICE_UNAVAILABLE"
	CodeInternal        = "INTERNAL_ERROR"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Success bool   `json:"success"`
	Message string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(code, message string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    CodeNotFound,
		Message: message,
	}
}

// NewForbiddenError creates a 403 Forbidden error
func NewForbiddenError(message string) *APIError {
	return &APIError{
		Status:  http.StatusForbidden,
		Code:    CodeForbidden,
		Message: message,
	}
}

// NewProcessingError creates the 500 returned when style transfer fails
func NewProcessingError(cause error) *APIError {
	return &APIError{
		Status:  http.StatusInternalServerError,
		Code:    CodeProcessing,
		Message: "Processing failed: " + cause.Error(),
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternal,
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    CodeUnavailable,
		Message: message,
	}
}

// ErrorHandler renders every handler error as {success:false, error, code, details}.
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &httpErr):
		apiErr = fromHTTPError(httpErr)
	default:
		logging.DefaultLogger.Error("unhandled error", "path", c.Request().URL.Path, "err", err)
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    CodeInternal,
			Message: "An unexpected error occurred",
			Details: err.Error(),
		}
	}

	if c.Request().Method == http.MethodHead {
		c.NoContent(apiErr.Status)
		return
	}
	c.JSON(apiErr.Status, apiErr)
}

func fromHTTPError(e *echo.HTTPError) *APIError {
	apiErr := &APIError{
		Status:  e.Code,
		Code:    "HTTP_ERROR",
		Message: fmt.Sprintf("%v", e.Message),
	}
	switch e.Code {
	case http.StatusRequestEntityTooLarge:
		apiErr.Code = CodeTooLarge
		apiErr.Message = "File size must be less than 100MB"
	case http.StatusTooManyRequests:
		apiErr.Code = CodeRateLimited
	case http.StatusNotFound:
		apiErr.Code = CodeNotFound
	}
	return apiErr
}
