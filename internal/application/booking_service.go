package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxprohub/service-booking/internal/domain"
	bookingDomain "github.com/voxprohub/service-booking/internal/domain/booking"
	promoDomain "github.com/voxprohub/service-booking/internal/domain/promo"
	"github.com/voxprohub/service-booking/internal/domain/room"
	"github.com/voxprohub/service-booking/internal/events"
	"github.com/voxprohub/service-booking/internal/notification"
	"github.com/voxprohub/service-booking/internal/saga"
)

const dateLayout = "2006-01-02"

// CreateBookingRequest is the DTO for creating a booking.
type CreateBookingRequest struct {
	CustomerName  string                      `json:"name" binding:"required"`
	CustomerPhone string                      `json:"phone" binding:"required"`
	Slots         []bookingDomain.SlotRequest `json:"slots" binding:"required"`
	PromoCode     string                      `json:"promo_code"`
	Note          string                      `json:"note"`
}

// BookingDTO is the API response DTO for booking data.
type BookingDTO struct {
	ID              uuid.UUID                    `json:"id"`
	CustomerName    string                       `json:"name"`
	CustomerPhone   string                       `json:"phone"`
	Slots           []bookingDomain.ReservedSlot `json:"slots"`
	Subtotal        int64                        `json:"subtotal"`
	Discount        int64                        `json:"discount"`
	Total           int64                        `json:"total"`
	PromoCode       string                       `json:"promo_code,omitempty"`
	Status          string                       `json:"payment_status"`
	Note            string                       `json:"note,omitempty"`
	PaymentDeadline time.Time                    `json:"payment_deadline"`
	CreatedAt       time.Time                    `json:"created_at"`
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	PaidRevenue   int64            `json:"paid_revenue"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// BookingService orchestrates booking creation and reads. Creation goes
// through the availability index first, so a booking row only ever exists
// with its slots reserved.
type BookingService struct {
	repo          bookingDomain.Repository
	index         bookingDomain.AvailabilityIndex
	promos        promoDomain.Repository
	catalog       *room.Catalog
	dispatcher    *notification.Dispatcher
	paymentWindow time.Duration
	openHour      int
	closeHour     int
	logger        *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.Repository,
	index bookingDomain.AvailabilityIndex,
	promos promoDomain.Repository,
	catalog *room.Catalog,
	dispatcher *notification.Dispatcher,
	paymentWindow time.Duration,
	openHour, closeHour int,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:          repo,
		index:         index,
		promos:        promos,
		catalog:       catalog,
		dispatcher:    dispatcher,
		paymentWindow: paymentWindow,
		openHour:      openHour,
		closeHour:     closeHour,
		logger:        logger,
	}
}

// CreateBooking validates the request, reserves the slots atomically, prices
// the booking and persists it in pending state with a fixed payment deadline.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingDTO, error) {
	candidates, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	subtotal := int64(0)
	for _, c := range candidates {
		r, _ := s.catalog.Get(c.RoomID)
		subtotal += r.PricePerHour * int64(c.EndHour-c.StartHour)
	}

	var discount int64
	var appliedCode string
	var applied *promoDomain.Promo
	if req.PromoCode != "" {
		p, err := s.promos.FindByCode(ctx, req.PromoCode)
		if err != nil {
			return nil, domain.NewValidationError(
				fmt.Sprintf("unknown promo code %q", req.PromoCode), "promo_code")
		}
		if !p.IsValid() {
			return nil, domain.NewValidationError(
				fmt.Sprintf("promo code %q is expired or fully used", p.Code()), "promo_code")
		}
		discount = p.Discount(subtotal)
		appliedCode = p.Code()
		applied = p
	}

	b := bookingDomain.NewBooking(
		req.CustomerName, req.CustomerPhone,
		candidates, subtotal, discount,
		appliedCode, req.Note,
		s.paymentWindow,
	)

	sg := saga.New("create_booking", s.logger)

	// Step 1: claim the slots. This is the atomic gate; conflicts surface
	// here and nothing else has happened yet.
	sg.AddStep(saga.Step{
		Name: "reserve_slots",
		Execute: func(ctx context.Context) error {
			return s.index.ReserveAtomic(ctx, b.ID(), candidates)
		},
		Compensate: func(ctx context.Context) error {
			return s.index.Release(ctx, b.ID())
		},
	})

	// Step 2: persist the booking aggregate.
	sg.AddStep(saga.Step{
		Name: "save_booking",
		Execute: func(ctx context.Context) error {
			return s.repo.Save(ctx, b)
		},
		Compensate: nil,
	})

	if err := sg.Execute(ctx); err != nil {
		// Surface the domain error (conflict/validation) without the saga wrapper.
		var domErr *domain.DomainError
		if errors.As(err, &domErr) {
			return nil, domErr
		}
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", b.ID().String()),
		zap.Int64("total", b.Total()),
		zap.Int("slots", len(candidates)),
	)

	if applied != nil {
		applied.IncrementUses()
		if err := s.promos.Update(ctx, applied); err != nil {
			s.logger.Warn("failed to record promo usage",
				zap.String("code", applied.Code()), zap.Error(err))
		}
	}

	if s.dispatcher != nil {
		s.dispatcher.BookingChanged(ctx, b, events.BookingCreated)
	}

	dto := toBookingDTO(b)
	return &dto, nil
}

// GetBooking retrieves a booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, id uuid.UUID) (*BookingDTO, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toBookingDTO(b)
	return &dto, nil
}

// ListBookings returns a paginated list, newest slot date first (admin).
func (s *BookingService) ListBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]BookingDTO, len(bookings))
	for i, b := range bookings {
		dtos[i] = toBookingDTO(b)
	}
	return dtos, total, nil
}

// Availability returns the occupied intervals for a room and date. Purely
// advisory: the authoritative check happens at reservation time.
func (s *BookingService) Availability(ctx context.Context, roomID, date string) ([]bookingDomain.ReservedSlot, error) {
	if _, ok := s.catalog.Get(roomID); !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("unknown room %q", roomID), "room")
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid date %q, want YYYY-MM-DD", date), "date")
	}
	blocked, err := s.index.Blocked(ctx, roomID, date)
	if err != nil {
		return nil, err
	}
	if blocked == nil {
		blocked = []bookingDomain.ReservedSlot{}
	}
	return blocked, nil
}

// GetStats returns aggregate booking statistics (admin).
func (s *BookingService) GetStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, revenue, err := s.repo.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, c := range counts {
		total += c
	}
	return &BookingStatsDTO{
		TotalBookings: total,
		PaidRevenue:   revenue,
		ByStatus:      counts,
	}, nil
}

// Rooms returns the room catalog.
func (s *BookingService) Rooms() []room.Room {
	return s.catalog.All()
}

// validate checks the request shape and converts slot requests to reserved
// slot candidates.
func (s *BookingService) validate(req CreateBookingRequest) ([]bookingDomain.ReservedSlot, error) {
	var fields []string
	if req.CustomerName == "" {
		fields = append(fields, "name")
	}
	if req.CustomerPhone == "" {
		fields = append(fields, "phone")
	}
	if len(req.Slots) == 0 {
		fields = append(fields, "slots")
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError("missing required fields", fields...)
	}

	candidates := make([]bookingDomain.ReservedSlot, 0, len(req.Slots))
	for i, sr := range req.Slots {
		if _, ok := s.catalog.Get(sr.RoomID); !ok {
			return nil, domain.NewValidationError(
				fmt.Sprintf("slot %d: unknown room %q", i, sr.RoomID), "slots")
		}
		if _, err := time.Parse(dateLayout, sr.Date); err != nil {
			return nil, domain.NewValidationError(
				fmt.Sprintf("slot %d: invalid date %q, want YYYY-MM-DD", i, sr.Date), "slots")
		}
		if sr.Duration < 1 {
			return nil, domain.NewValidationError(
				fmt.Sprintf("slot %d: duration must be at least 1 hour", i), "slots")
		}
		if sr.StartHour < s.openHour || sr.StartHour+sr.Duration > s.closeHour {
			return nil, domain.NewValidationError(
				fmt.Sprintf("slot %d: hours %02d:00-%02d:00 are outside operating hours %02d:00-%02d:00",
					i, sr.StartHour, sr.StartHour+sr.Duration, s.openHour, s.closeHour), "slots")
		}
		candidates = append(candidates, bookingDomain.ReservedSlot{
			RoomID:    sr.RoomID,
			Date:      sr.Date,
			StartHour: sr.StartHour,
			EndHour:   sr.StartHour + sr.Duration,
		})
	}
	return candidates, nil
}

// toBookingDTO maps a domain Booking to a BookingDTO.
func toBookingDTO(b *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:              b.ID(),
		CustomerName:    b.CustomerName(),
		CustomerPhone:   b.CustomerPhone(),
		Slots:           b.Slots(),
		Subtotal:        b.Subtotal(),
		Discount:        b.Discount(),
		Total:           b.Total(),
		PromoCode:       b.PromoCode(),
		Status:          string(b.Status()),
		Note:            b.Note(),
		PaymentDeadline: b.Deadline(),
		CreatedAt:       b.CreatedAt(),
	}
}
