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
	paymentDomain "github.com/voxprohub/service-booking/internal/domain/payment"
	"github.com/voxprohub/service-booking/internal/saga"
)

// IssueQRRequest is the DTO for requesting a payment QR code.
type IssueQRRequest struct {
	BookingID   uuid.UUID `json:"bookingId" binding:"required"`
	Amount      int64     `json:"amount"`
	Description string    `json:"deskripsi"`
}

// SessionDTO is the API response for a payment session.
type SessionDTO struct {
	BookingID   uuid.UUID `json:"booking_id"`
	ReferenceID string    `json:"referenceId"`
	QRData      string    `json:"qrData"`
	Amount      int64     `json:"amount"`
	IssuedAt    time.Time `json:"issued_at"`
}

// PaymentService orchestrates QR issuance for pending bookings.
type PaymentService struct {
	bookings bookingDomain.Repository
	sessions paymentDomain.SessionRepository
	qrisSaga *saga.QRISSagaService
	logger   *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	bookings bookingDomain.Repository,
	sessions paymentDomain.SessionRepository,
	qrisSaga *saga.QRISSagaService,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		bookings: bookings,
		sessions: sessions,
		qrisSaga: qrisSaga,
		logger:   logger,
	}
}

// IssueQR requests a QR code for a pending booking. The amount defaults to
// the booking total and must match it when given. Re-issuing for the same
// booking refreshes the existing session under the same provider reference.
func (s *PaymentService) IssueQR(ctx context.Context, req IssueQRRequest) (*SessionDTO, error) {
	b, err := s.bookings.FindByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if b.Status() != bookingDomain.StatusPending {
		return nil, domain.NewValidationError(
			fmt.Sprintf("booking is %s, QR issuance requires pending", b.Status()), "bookingId")
	}

	amount := req.Amount
	if amount == 0 {
		amount = b.Total()
	}
	if amount != b.Total() {
		return nil, domain.NewValidationError(
			fmt.Sprintf("amount %d does not match booking total %d", amount, b.Total()), "amount")
	}

	s.logger.Info("issuing QR",
		zap.String("booking_id", b.ID().String()),
		zap.Int64("amount", amount),
	)

	existing, err := s.sessions.FindByBookingID(ctx, req.BookingID)
	switch {
	case err == nil:
		session, err := s.qrisSaga.ReissueQRSaga(ctx, existing, req.Description)
		if err != nil {
			return nil, err
		}
		dto := toSessionDTO(session)
		return &dto, nil
	case errors.Is(err, domain.ErrNotFound):
		session, err := s.qrisSaga.IssueQRSaga(ctx, req.BookingID, amount, req.Description)
		if err != nil {
			return nil, err
		}
		dto := toSessionDTO(session)
		return &dto, nil
	default:
		return nil, err
	}
}

// GetSession returns the payment session for a booking.
func (s *PaymentService) GetSession(ctx context.Context, bookingID uuid.UUID) (*SessionDTO, error) {
	session, err := s.sessions.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	dto := toSessionDTO(session)
	return &dto, nil
}

func toSessionDTO(s *paymentDomain.Session) SessionDTO {
	return SessionDTO{
		BookingID:   s.BookingID(),
		ReferenceID: s.ReferenceID(),
		QRData:      s.QRData(),
		Amount:      s.Amount(),
		IssuedAt:    s.IssuedAt(),
	}
}
