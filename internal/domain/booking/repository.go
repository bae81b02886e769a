package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for Booking aggregates.
type Repository interface {
	// FindByID retrieves a booking by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// List retrieves bookings ordered by first slot date descending (admin).
	List(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// FindOverduePending returns pending bookings whose deadline has passed.
	FindOverduePending(ctx context.Context, now time.Time) ([]*Booking, error)

	// GetStats returns counts per status and total paid revenue (admin).
	GetStats(ctx context.Context) (countByStatus map[string]int64, paidRevenue int64, err error)

	// Save persists a new booking aggregate together with its slots.
	Save(ctx context.Context, b *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, b *Booking) error
}

// AvailabilityIndex is the single source of truth for slot occupancy.
// ReserveAtomic is the only mutating entry point for claiming hours.
type AvailabilityIndex interface {
	// Blocked returns the occupied hour intervals for a room and date,
	// used for advisory calendar rendering.
	Blocked(ctx context.Context, roomID, date string) ([]ReservedSlot, error)

	// ReserveAtomic admits all candidate slots for the booking or none.
	// Candidates are checked against existing occupancy and against each
	// other; a collision yields a conflict error naming the colliding
	// intervals and leaves no partial state behind.
	ReserveAtomic(ctx context.Context, bookingID uuid.UUID, candidates []ReservedSlot) error

	// Release frees every hour owned by the booking (expiry/cancellation).
	Release(ctx context.Context, bookingID uuid.UUID) error

	// ReleaseOrphaned frees hours still owned by bookings that already
	// reached a released terminal state, retrying releases that failed
	// after their status transition committed. Returns the number of
	// hour rows freed.
	ReleaseOrphaned(ctx context.Context) (int64, error)
}
