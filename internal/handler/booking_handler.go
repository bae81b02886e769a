package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/voxprohub/service-booking/internal/application"
	bookingDomain "github.com/voxprohub/service-booking/internal/domain/booking"
	"github.com/voxprohub/service-booking/internal/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	bookings  *application.BookingService
	lifecycle *application.LifecycleService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookings *application.BookingService, lifecycle *application.LifecycleService) *BookingHandler {
	return &BookingHandler{bookings: bookings, lifecycle: lifecycle}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/rooms", h.ListRooms)
	r.GET("/availability", h.GetAvailability)

	bookings := r.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.GET("/:id/status", h.GetStatus)
		bookings.PATCH("/:id/status", h.OverrideStatus)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}
}

// ListBookings handles GET /api/v1/bookings?page=1&limit=20, newest first.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	dtos, total, err := h.bookings.ListBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dtos, page, limit, total)
}

// ListRooms handles GET /api/v1/rooms
func (h *BookingHandler) ListRooms(c *gin.Context) {
	response.Success(c, h.bookings.Rooms())
}

// GetAvailability handles GET /api/v1/availability?room=POD&date=2026-09-01
func (h *BookingHandler) GetAvailability(c *gin.Context) {
	roomID := c.Query("room")
	date := c.Query("date")
	if roomID == "" || date == "" {
		response.BadRequest(c, "room and date query parameters are required")
		return
	}

	blocked, err := h.bookings.Availability(c.Request.Context(), roomID, date)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"room": roomID, "date": date, "blocked": blocked})
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.bookings.CreateBooking(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto)
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	dto, err := h.bookings.GetBooking(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// GetStatus handles GET /api/v1/bookings/:id/status. Clients poll this while
// waiting for the payment to settle.
func (h *BookingHandler) GetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	status, err := h.lifecycle.GetStatus(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"id": id, "payment_status": status})
}

// OverrideStatus handles PATCH /api/v1/bookings/:id/status, the manual
// correction entry point. Terminal bookings report their current status
// unchanged.
func (h *BookingHandler) OverrideStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	status, err := h.lifecycle.Override(c.Request.Context(), id, bookingDomain.Status(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"id": id, "payment_status": status})
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	status, err := h.lifecycle.Cancel(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"id": id, "payment_status": status})
}
