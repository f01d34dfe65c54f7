package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"payrecon/internal/domain"
	"payrecon/internal/gateway"
	"payrecon/internal/repository"
	"payrecon/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Server side failures are attached to the gin context so the request logger
// and New Relic see them.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidPaymentID),
		errors.Is(err, service.ErrInvalidTranID),
		errors.Is(err, domain.ErrInvalidFilter):
		return http.StatusBadRequest

	// The record exists but cannot be validated
	case errors.Is(err, service.ErrNoTransactionID):
		return http.StatusUnprocessableEntity

	// Conflict errors
	case errors.Is(err, service.ErrLockTimeout):
		return http.StatusConflict

	// Service unavailable
	case errors.Is(err, gateway.ErrUnavailable):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
