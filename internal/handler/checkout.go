package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bookpay/internal/domain"
	"bookpay/internal/service"
)

// CheckoutHandler handles HTTP requests for checkout sessions.
type CheckoutHandler struct {
	checkoutService *service.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(checkoutService *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// SubmitRequest is the HTTP request body for submitting a payment.
type SubmitRequest struct {
	UserID      string `json:"user_id"`
	BookID      string `json:"book_id"`
	PhoneNumber string `json:"phone_number"`
	Amount      string `json:"amount"`
	MethodID    string `json:"method_id"`
	Reference   string `json:"reference,omitempty"`
}

// TransactionResponse is the HTTP representation of a transaction.
type TransactionResponse struct {
	Reference     string `json:"reference"`
	PhoneNumber   string `json:"phone_number"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	MethodID      string `json:"method_id"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	CreatedAt     string `json:"created_at"`
	ResolvedAt    string `json:"resolved_at,omitempty"`
}

// CheckoutResponse is the HTTP response for checkout state queries.
type CheckoutResponse struct {
	SessionID   string               `json:"session_id"`
	State       string               `json:"state"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
}

// Submit handles POST /v1/checkout/:session/submit
func (h *CheckoutHandler) Submit(c *gin.Context) {
	sessionID := c.Param("session")

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.UserID == "" || req.BookID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id and book_id are required"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "amount must be a decimal number", Field: "amount", Raw: req.Amount})
		return
	}

	txn, err := h.checkoutService.Submit(c.Request.Context(), service.SubmitRequest{
		SessionID:   sessionID,
		UserID:      req.UserID,
		BookID:      req.BookID,
		PhoneNumber: req.PhoneNumber,
		Amount:      amount,
		MethodID:    req.MethodID,
		Reference:   req.Reference,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	state, _, stateErr := h.checkoutService.State(c.Request.Context(), sessionID)
	if stateErr != nil {
		state = domain.CheckoutStateProcessing
	}

	respondJSON(c, http.StatusAccepted, CheckoutResponse{
		SessionID:   sessionID,
		State:       string(state),
		Transaction: toTransactionResponse(txn),
	})
}

// GetState handles GET /v1/checkout/:session
func (h *CheckoutHandler) GetState(c *gin.Context) {
	sessionID := c.Param("session")

	state, txn, err := h.checkoutService.State(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, CheckoutResponse{
		SessionID:   sessionID,
		State:       string(state),
		Transaction: toTransactionResponse(txn),
	})
}

// Retry handles POST /v1/checkout/:session/retry
func (h *CheckoutHandler) Retry(c *gin.Context) {
	sessionID := c.Param("session")

	if err := h.checkoutService.Retry(c.Request.Context(), sessionID); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, CheckoutResponse{
		SessionID: sessionID,
		State:     string(domain.CheckoutStateIdle),
	})
}

// Close handles DELETE /v1/checkout/:session
func (h *CheckoutHandler) Close(c *gin.Context) {
	sessionID := c.Param("session")

	if err := h.checkoutService.Close(c.Request.Context(), sessionID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// toTransactionResponse converts a transaction to its HTTP representation.
func toTransactionResponse(txn *domain.Transaction) *TransactionResponse {
	if txn == nil {
		return nil
	}

	resp := &TransactionResponse{
		Reference:     txn.Reference,
		PhoneNumber:   txn.PhoneNumber,
		Amount:        txn.Amount.StringFixed(2),
		Currency:      txn.Currency,
		MethodID:      txn.MethodID,
		Status:        string(txn.Status),
		FailureReason: txn.FailureReason,
		CreatedAt:     txn.CreatedAt.Format(time.RFC3339),
	}
	if !txn.ResolvedAt.IsZero() {
		resp.ResolvedAt = txn.ResolvedAt.Format(time.RFC3339)
	}

	return resp
}
