package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookpay/internal/service"
)

// MethodsHandler handles HTTP requests for the payment method catalog.
type MethodsHandler struct {
	methodsService *service.MethodsService
}

// NewMethodsHandler creates a new MethodsHandler.
func NewMethodsHandler(methodsService *service.MethodsService) *MethodsHandler {
	return &MethodsHandler{methodsService: methodsService}
}

// MethodResponse is the HTTP representation of a payment method.
type MethodResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Kind        string `json:"kind"`
	Enabled     bool   `json:"enabled"`
}

// List handles GET /v1/payment-methods
func (h *MethodsHandler) List(c *gin.Context) {
	methods, err := h.methodsService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]MethodResponse, 0, len(methods))
	for _, m := range methods {
		resp = append(resp, MethodResponse{
			ID:          m.ID,
			DisplayName: m.DisplayName,
			Kind:        string(m.Kind),
			Enabled:     m.Enabled,
		})
	}

	respondJSON(c, http.StatusOK, resp)
}
