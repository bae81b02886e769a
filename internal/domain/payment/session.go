package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voxprohub/service-booking/internal/domain/booking"
)

// ReferencePrefix is prepended to the booking ID to form the provider
// reference, so retried issuance for the same booking correlates to the same
// provider-side record.
const ReferencePrefix = "BOOK-"

// Reference derives the deterministic provider reference for a booking.
func Reference(bookingID uuid.UUID) string {
	return ReferencePrefix + bookingID.String()
}

// ParseReference extracts the booking ID from a provider reference.
func ParseReference(ref string) (uuid.UUID, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(ref), ReferencePrefix)
	if raw == ref {
		return uuid.Nil, fmt.Errorf("reference %q does not carry the %s prefix", ref, ReferencePrefix)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("reference %q carries an invalid booking id: %w", ref, err)
	}
	return id, nil
}

// Session records a QR issuance for a booking: the provider reference, the
// QR payload handed to the customer, and the charged amount in rupiah.
type Session struct {
	id        uuid.UUID
	bookingID uuid.UUID
	reference string
	qrData    string
	amount    int64
	issuedAt  time.Time
}

// NewSession creates a payment session for a booking.
func NewSession(bookingID uuid.UUID, qrData string, amount int64) *Session {
	return &Session{
		id:        uuid.New(),
		bookingID: bookingID,
		reference: Reference(bookingID),
		qrData:    qrData,
		amount:    amount,
		issuedAt:  time.Now().UTC(),
	}
}

// Reconstruct rebuilds a Session from persistence.
func Reconstruct(id, bookingID uuid.UUID, reference, qrData string, amount int64, issuedAt time.Time) *Session {
	return &Session{
		id:        id,
		bookingID: bookingID,
		reference: reference,
		qrData:    qrData,
		amount:    amount,
		issuedAt:  issuedAt,
	}
}

// AttachQR stores the provider-issued QR payload.
func (s *Session) AttachQR(qrData string) {
	s.qrData = qrData
	s.issuedAt = time.Now().UTC()
}

func (s *Session) ID() uuid.UUID        { return s.id }
func (s *Session) BookingID() uuid.UUID { return s.bookingID }
func (s *Session) ReferenceID() string  { return s.reference }
func (s *Session) QRData() string       { return s.qrData }
func (s *Session) Amount() int64        { return s.amount }
func (s *Session) IssuedAt() time.Time  { return s.issuedAt }

// providerStatusTable maps the provider's status vocabulary onto the internal
// state machine. The table is the single place this mapping lives; anything
// outside it is treated as unmapped and must not move the booking.
var providerStatusTable = map[string]booking.Status{
	"PAID":      booking.StatusPaid,
	"COMPLETED": booking.StatusPaid,
	"EXPIRED":   booking.StatusCancelled,
	"CANCELLED": booking.StatusCancelled,
	"CANCELED":  booking.StatusCancelled,
	"FAILED":    booking.StatusFailed,
	"DECLINED":  booking.StatusFailed,
}

// NormalizeProviderStatus maps a raw provider status string to an internal
// status. ok is false for anything outside the table.
func NormalizeProviderStatus(raw string) (booking.Status, bool) {
	s, ok := providerStatusTable[strings.ToUpper(strings.TrimSpace(raw))]
	return s, ok
}
