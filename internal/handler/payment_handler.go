package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxprohub/service-booking/internal/application"
	"github.com/voxprohub/service-booking/internal/domain"
	"github.com/voxprohub/service-booking/internal/response"
)

// PaymentHandler handles QR issuance and provider webhooks.
type PaymentHandler struct {
	payments  *application.PaymentService
	lifecycle *application.LifecycleService
	logger    *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments *application.PaymentService, lifecycle *application.LifecycleService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, lifecycle: lifecycle, logger: logger}
}

// RegisterRoutes registers all payment routes on the given router group.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("/qris", h.IssueQR)
		payments.GET("/booking/:bookingId", h.GetSession)
		payments.POST("/qris/callback", h.Webhook)
	}
}

// IssueQR handles POST /api/v1/payments/qris
func (h *PaymentHandler) IssueQR(c *gin.Context) {
	var req application.IssueQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.payments.IssueQR(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// GetSession handles GET /api/v1/payments/booking/:bookingId
func (h *PaymentHandler) GetSession(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	dto, err := h.payments.GetSession(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// webhookPayload is the provider's callback shape.
type webhookPayload struct {
	Data struct {
		NoRef  string `json:"no_ref"`
		Status string `json:"status"`
	} `json:"data"`
}

// Webhook handles POST /api/v1/payments/qris/callback. The provider retries on
// non-200, so every processed delivery acknowledges with 200 regardless of
// outcome: duplicates, unknown references and unmapped statuses are logged
// no-ops. Only a malformed body is rejected.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.BadRequest(c, "invalid webhook payload")
		return
	}
	if payload.Data.NoRef == "" || payload.Data.Status == "" {
		response.BadRequest(c, "webhook payload missing no_ref or status")
		return
	}

	status, err := h.lifecycle.ApplyWebhook(c.Request.Context(), payload.Data.NoRef, payload.Data.Status)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.logger.Warn("webhook for unknown booking",
				zap.String("reference", payload.Data.NoRef))
			c.JSON(http.StatusOK, gin.H{"success": true, "applied": false})
		case errors.Is(err, domain.ErrUnmappedStatus):
			c.JSON(http.StatusOK, gin.H{"success": true, "applied": false})
		case errors.Is(err, domain.ErrValidation):
			response.Error(c, err)
		default:
			h.logger.Error("webhook processing failed",
				zap.String("reference", payload.Data.NoRef),
				zap.Error(err))
			response.Error(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "applied": true, "payment_status": status})
}
