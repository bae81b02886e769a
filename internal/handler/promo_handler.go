package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/voxprohub/service-booking/internal/application"
	"github.com/voxprohub/service-booking/internal/response"
)

// PromoHandler handles HTTP requests for promo codes.
type PromoHandler struct {
	service *application.PromoService
}

// NewPromoHandler creates a new PromoHandler.
func NewPromoHandler(service *application.PromoService) *PromoHandler {
	return &PromoHandler{service: service}
}

// RegisterRoutes registers promo routes on the given router group.
func (h *PromoHandler) RegisterRoutes(r *gin.RouterGroup) {
	promos := r.Group("/promos")
	{
		promos.GET("", h.ListActive)
		promos.POST("/validate", h.Validate)
	}
}

// ListActive handles GET /api/v1/promos
func (h *PromoHandler) ListActive(c *gin.Context) {
	dtos, err := h.service.GetActivePromos(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dtos)
}

// Validate handles POST /api/v1/promos/validate
func (h *PromoHandler) Validate(c *gin.Context) {
	var req application.ValidatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.ValidatePromo(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}
