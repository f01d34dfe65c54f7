package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"payrecon/internal/domain"
	"payrecon/internal/service"
)

// PaymentHandler handles HTTP requests for the admin payment console.
type PaymentHandler struct {
	reconciliation *service.ReconciliationService
	logger         *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(reconciliation *service.ReconciliationService, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{reconciliation: reconciliation, logger: logger}
}

// UpdateStatusRequest is the HTTP request body for setting a payment status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
	TranID string `json:"tranId,omitempty"` // Fallback key, only read on PUT /:id/status
}

// PaymentItemResponse is one purchased line of a payment.
type PaymentItemResponse struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// PaymentResponse is the HTTP representation of a payment.
type PaymentResponse struct {
	ID                string                `json:"id"`
	OrderID           string                `json:"orderId"`
	TranID            string                `json:"tranId,omitempty"`
	CustomerName      string                `json:"customerName"`
	CustomerEmail     string                `json:"customerEmail"`
	CustomerPhone     string                `json:"customerPhone,omitempty"`
	Amount            float64               `json:"amount"`
	Currency          string                `json:"currency"`
	Status            string                `json:"status"`
	PaymentMethod     string                `json:"paymentMethod"`
	PaymentMethodName string                `json:"paymentMethodName"`
	Items             []PaymentItemResponse `json:"items"`
	CreatedAt         time.Time             `json:"createdAt"`
	PaymentDate       *time.Time            `json:"paymentDate"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

// StatsResponse summarizes every payment matching a list filter.
type StatsResponse struct {
	Total         int     `json:"total"`
	Completed     int     `json:"completed"`
	TotalAmount   float64 `json:"totalAmount"`
	AverageAmount float64 `json:"averageAmount"`
}

// PaginationResponse describes the returned page.
type PaginationResponse struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// ListPaymentsResponse is the HTTP response for listing payments.
type ListPaymentsResponse struct {
	Payments   []PaymentResponse  `json:"payments"`
	Stats      StatsResponse      `json:"stats"`
	Pagination PaginationResponse `json:"pagination"`
}

// List handles GET /v1/admin/payments
func (h *PaymentHandler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.reconciliation.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	payments := make([]PaymentResponse, 0, len(page.Payments))
	for _, p := range page.Payments {
		payments = append(payments, toPaymentResponse(p))
	}

	respondJSON(c, http.StatusOK, ListPaymentsResponse{
		Payments: payments,
		Stats: StatsResponse{
			Total:         page.Stats.Total,
			Completed:     page.Stats.Completed,
			TotalAmount:   page.Stats.TotalAmount.InexactFloat64(),
			AverageAmount: page.Stats.AverageAmount.InexactFloat64(),
		},
		Pagination: PaginationResponse{
			Page:       page.Pagination.Page,
			Limit:      page.Pagination.Limit,
			Total:      page.Pagination.Total,
			TotalPages: page.Pagination.TotalPages,
			HasNext:    page.Pagination.HasNext,
			HasPrev:    page.Pagination.HasPrev,
		},
	})
}

// Get handles GET /v1/admin/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	payment, err := h.reconciliation.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// UpdateStatus handles PUT /v1/admin/payments/:id/status
// An optional tranId in the body is used when the id does not resolve.
func (h *PaymentHandler) UpdateStatus(c *gin.Context) {
	req, ok := bindStatusRequest(c)
	if !ok {
		return
	}

	status, _ := domain.ParsePaymentStatus(req.Status)
	payment, err := h.reconciliation.UpdateStatusWithFallback(c.Request.Context(), c.Param("id"), req.TranID, status)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// UpdateStatusByTranID handles PUT /v1/admin/payments/transaction/:tranId/status
func (h *PaymentHandler) UpdateStatusByTranID(c *gin.Context) {
	req, ok := bindStatusRequest(c)
	if !ok {
		return
	}

	status, _ := domain.ParsePaymentStatus(req.Status)
	payment, err := h.reconciliation.UpdateStatusByTranID(c.Request.Context(), c.Param("tranId"), status)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// Validate handles POST /v1/admin/payments/transaction/:tranId/validate
func (h *PaymentHandler) Validate(c *gin.Context) {
	payment, err := h.reconciliation.Validate(c.Request.Context(), c.Param("tranId"))
	if err != nil {
		h.logger.Warn("validation failed", zap.String("tran_id", c.Param("tranId")), zap.Error(err))
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// ValidateByPaymentID handles POST /v1/admin/payments/:id/validate
func (h *PaymentHandler) ValidateByPaymentID(c *gin.Context) {
	payment, err := h.reconciliation.ValidateByPaymentID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Warn("validation failed", zap.String("payment_id", c.Param("id")), zap.Error(err))
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// bindStatusRequest decodes the body. An unknown status is passed through as
// empty so the service reports ErrInvalidStatus.
func bindStatusRequest(c *gin.Context) (UpdateStatusRequest, bool) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return req, false
	}
	if strings.TrimSpace(req.Status) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "status is required"})
		return req, false
	}
	return req, true
}

// parseFilter reads the list query string. "all" means no status or method filter.
func parseFilter(c *gin.Context) (domain.PaymentFilter, error) {
	var (
		filter domain.PaymentFilter
		err    error
	)

	if filter.Page, err = parseIntQuery(c, "page"); err != nil {
		return filter, err
	}
	if filter.Limit, err = parseIntQuery(c, "limit"); err != nil {
		return filter, err
	}
	filter.Search = c.Query("search")

	if v := c.Query("status"); v != "" && !strings.EqualFold(v, "all") {
		status, ok := domain.ParsePaymentStatus(v)
		if !ok {
			return filter, fmt.Errorf("%w: status %q", domain.ErrInvalidFilter, v)
		}
		filter.Status = status
	}
	if v := c.Query("paymentMethod"); v != "" && !strings.EqualFold(v, "all") {
		method, ok := domain.ParsePaymentMethod(v)
		if !ok {
			return filter, fmt.Errorf("%w: payment method %q", domain.ErrInvalidFilter, v)
		}
		filter.PaymentMethod = method
	}

	if filter.StartDate, err = domain.ParseFilterDate(c.Query("startDate"), false); err != nil {
		return filter, err
	}
	if filter.EndDate, err = domain.ParseFilterDate(c.Query("endDate"), true); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseIntQuery(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", domain.ErrInvalidFilter, key, v)
	}
	return n, nil
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	items := make([]PaymentItemResponse, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, PaymentItemResponse{
			Name:     item.Name,
			Price:    item.Price.InexactFloat64(),
			Quantity: item.Quantity,
		})
	}

	return PaymentResponse{
		ID:                p.ID,
		OrderID:           p.OrderID,
		TranID:            p.TranID,
		CustomerName:      p.CustomerName,
		CustomerEmail:     p.CustomerEmail,
		CustomerPhone:     p.CustomerPhone,
		Amount:            p.Amount.InexactFloat64(),
		Currency:          p.Currency,
		Status:            string(p.Status),
		PaymentMethod:     string(p.PaymentMethod),
		PaymentMethodName: p.PaymentMethod.DisplayName(),
		Items:             items,
		CreatedAt:         p.CreatedAt,
		PaymentDate:       p.PaymentDate,
		UpdatedAt:         p.UpdatedAt,
	}
}
