package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents the payment lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether the status is final. Every status except pending
// is terminal and immutable.
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled || s == StatusExpired || s == StatusFailed
}

// IsValid reports whether s is one of the five known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled, StatusExpired, StatusFailed:
		return true
	}
	return false
}

// SlotRequest is the transient client input for one requested slot.
type SlotRequest struct {
	RoomID    string `json:"room" binding:"required"`
	Date      string `json:"date" binding:"required"`
	StartHour int    `json:"start_hour"`
	Duration  int    `json:"duration" binding:"required"`
}

// ReservedSlot is one reserved half-open hour interval [StartHour, EndHour)
// on a room and calendar date. Dates use the 2006-01-02 layout.
type ReservedSlot struct {
	RoomID    string `json:"room"`
	Date      string `json:"date"`
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
}

// Overlaps reports whether two slots collide: same room, same date, and
// max(s1,s2) < min(e1,e2).
func (s ReservedSlot) Overlaps(o ReservedSlot) bool {
	if s.RoomID != o.RoomID || s.Date != o.Date {
		return false
	}
	start := s.StartHour
	if o.StartHour > start {
		start = o.StartHour
	}
	end := s.EndHour
	if o.EndHour < end {
		end = o.EndHour
	}
	return start < end
}

// Interval renders the hour range as "10:00-11:00" for conflict messages.
func (s ReservedSlot) Interval() string {
	return fmt.Sprintf("%02d:00-%02d:00", s.StartHour, s.EndHour)
}

// Booking is the aggregate root tying one or more reserved slots to a single
// payment lifecycle. Monetary amounts are whole rupiah.
type Booking struct {
	id            uuid.UUID
	customerName  string
	customerPhone string
	slots         []ReservedSlot
	subtotal      int64
	discount      int64
	total         int64
	promoCode     string
	status        Status
	note          string
	deadline      time.Time
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// NewBooking creates a pending booking. The payment deadline is fixed here and
// never mutated afterwards.
func NewBooking(customerName, customerPhone string, slots []ReservedSlot, subtotal, discount int64, promoCode, note string, paymentWindow time.Duration) *Booking {
	now := time.Now().UTC()
	return &Booking{
		id:            uuid.New(),
		customerName:  customerName,
		customerPhone: customerPhone,
		slots:         slots,
		subtotal:      subtotal,
		discount:      discount,
		total:         subtotal - discount,
		promoCode:     promoCode,
		status:        StatusPending,
		note:          note,
		deadline:      now.Add(paymentWindow),
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}
}

// Reconstitute rebuilds a Booking from persisted data.
func Reconstitute(
	id uuid.UUID,
	customerName, customerPhone string,
	slots []ReservedSlot,
	subtotal, discount, total int64,
	promoCode string,
	status Status,
	note string,
	deadline time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:            id,
		customerName:  customerName,
		customerPhone: customerPhone,
		slots:         slots,
		subtotal:      subtotal,
		discount:      discount,
		total:         total,
		promoCode:     promoCode,
		status:        status,
		note:          note,
		deadline:      deadline,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// --- Getters ---

func (b *Booking) ID() uuid.UUID         { return b.id }
func (b *Booking) CustomerName() string  { return b.customerName }
func (b *Booking) CustomerPhone() string { return b.customerPhone }
func (b *Booking) Slots() []ReservedSlot { return b.slots }
func (b *Booking) Subtotal() int64       { return b.subtotal }
func (b *Booking) Discount() int64       { return b.discount }
func (b *Booking) Total() int64          { return b.total }
func (b *Booking) PromoCode() string     { return b.promoCode }
func (b *Booking) Status() Status        { return b.status }
func (b *Booking) Note() string          { return b.note }
func (b *Booking) Deadline() time.Time   { return b.deadline }
func (b *Booking) Version() int64        { return b.version }
func (b *Booking) CreatedAt() time.Time  { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time  { return b.updatedAt }

// --- Behavior / State Transitions ---

// Transition attempts to move the booking to target. Terminal statuses are
// immutable: an attempt from a terminal state is a no-op that reports the
// current status, which makes webhook replays and sweep races idempotent.
// It returns the status after the attempt and whether the booking changed.
func (b *Booking) Transition(target Status) (Status, bool) {
	if b.status.IsTerminal() {
		return b.status, false
	}
	if target == b.status || !target.IsValid() {
		return b.status, false
	}
	b.status = target
	b.updatedAt = time.Now().UTC()
	return b.status, true
}

// IsOverdue reports whether the payment deadline has lapsed at the given
// instant while the booking is still pending.
func (b *Booking) IsOverdue(now time.Time) bool {
	return b.status == StatusPending && now.After(b.deadline)
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
