package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/voxprohub/service-booking/internal/application"
	"github.com/voxprohub/service-booking/internal/response"
)

// AdminHandler exposes the dashboard endpoints: booking stats and promo
// management.
type AdminHandler struct {
	bookings *application.BookingService
	promos   *application.PromoService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(bookings *application.BookingService, promos *application.PromoService) *AdminHandler {
	return &AdminHandler{bookings: bookings, promos: promos}
}

// RegisterRoutes registers admin routes on the given router group.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	{
		admin.GET("/stats", h.GetStats)
		admin.POST("/promos", h.CreatePromo)
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	dto, err := h.bookings.GetStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// CreatePromo handles POST /api/v1/admin/promos
func (h *AdminHandler) CreatePromo(c *gin.Context) {
	var req application.CreatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.promos.CreatePromo(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto)
}
