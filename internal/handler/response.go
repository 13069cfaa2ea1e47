package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookpay/internal/repository"
	"bookpay/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	// Field and Raw are set for validation failures so the UI can echo
	// back exactly what the user typed.
	Field string `json:"field,omitempty"`
	Raw   string `json:"raw,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	if verr, ok := service.AsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: verr.Reason,
			Field: verr.Field,
			Raw:   verr.Raw,
		})
		return
	}

	code := mapErrorToHTTPStatus(err)
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
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrUnknownPaymentMethod),
		errors.Is(err, service.ErrPaymentMethodDisabled):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrCheckoutInProgress),
		errors.Is(err, service.ErrCheckoutComplete),
		errors.Is(err, service.ErrRetryNotAllowed),
		errors.Is(err, service.ErrSessionLocked):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
