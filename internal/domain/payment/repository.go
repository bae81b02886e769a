package payment

import (
	"context"

	"github.com/google/uuid"
)

// SessionRepository defines persistence operations for payment sessions.
type SessionRepository interface {
	Save(ctx context.Context, s *Session) error
	Update(ctx context.Context, s *Session) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*Session, error)
	DeleteByBookingID(ctx context.Context, bookingID uuid.UUID) error
}

// WebhookLog deduplicates provider webhook deliveries. Record returns false
// when the (reference, status) pair has been seen before, making replayed
// deliveries a safe no-op.
type WebhookLog interface {
	Record(ctx context.Context, reference, status string) (firstDelivery bool, err error)
}
