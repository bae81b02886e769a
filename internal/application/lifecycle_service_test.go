package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voxprohub/service-booking/internal/domain"
	bookingDomain "github.com/voxprohub/service-booking/internal/domain/booking"
	paymentDomain "github.com/voxprohub/service-booking/internal/domain/payment"
	"github.com/voxprohub/service-booking/internal/notification"
)

type lifecycleFixture struct {
	service    *LifecycleService
	repo       *fakeBookingRepo
	index      *fakeIndex
	webhookLog *fakeWebhookLog
	publisher  *fakePublisher
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	repo := newFakeBookingRepo()
	index := newFakeIndex()
	log := newFakeWebhookLog()
	publisher := &fakePublisher{}
	dispatcher := notification.NewDispatcher(publisher, "628123456789", zap.NewNop())

	return &lifecycleFixture{
		service:    NewLifecycleService(repo, index, log, dispatcher, zap.NewNop()),
		repo:       repo,
		index:      index,
		webhookLog: log,
		publisher:  publisher,
	}
}

func (f *lifecycleFixture) seedBooking(t *testing.T, window time.Duration) *bookingDomain.Booking {
	t.Helper()
	b := bookingDomain.NewBooking("Rina", "+628111222333",
		[]bookingDomain.ReservedSlot{{RoomID: "POD", Date: "2026-09-01", StartHour: 10, EndHour: 12}},
		200000, 0, "", "", window)
	require.NoError(t, f.repo.Save(context.Background(), b))
	require.NoError(t, f.index.ReserveAtomic(context.Background(), b.ID(), b.Slots()))
	return b
}

func TestApplyWebhookPaid(t *testing.T) {
	f := newLifecycleFixture(t)
	b := f.seedBooking(t, 15*time.Minute)

	status, err := f.service.ApplyWebhook(context.Background(), paymentDomain.Reference(b.ID()), "PAID")
	require.NoError(t, err)

	assert.Equal(t, bookingDomain.StatusPaid, status)
	// Paid bookings keep their slots.
	assert.Contains(t, f.index.owned, b.ID())
	assert.Equal(t, []string{"booking.paid"}, f.publisher.types())
}

func TestApplyWebhookCancelledReleasesSlots(t *testing.T) {
	f := newLifecycleFixture(t)
	b := f.seedBooking(t, 15*time.Minute)

	status, err := f.service.ApplyWebhook(context.Background(), paymentDomain.Reference(b.ID()), "EXPIRED")
	require.NoError(t, err)

	assert.Equal(t, bookingDomain.StatusCancelled, status)
	assert.NotContains(t, f.index.owned, b.ID())
}

func TestApplyWebhookDuplicateDeliveryIsNoOp(t *testing.T) {
	f := newLifecycleFixture(t)
	b := f.seedBooking(t, 15*time.Minute)
	ref := paymentDomain.Reference(b.ID())

	_, err := f.service.ApplyWebhook(context.Background(), ref, "PAID")
	require.NoError(t, err)

	// Replay of the same delivery: same answer, no second event.
	status, err := f.service.ApplyWebhook(context.Background(), ref, "PAID")
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusPaid, status)
	assert.Equal(t, []string{"booking.paid"}, f.publisher.types())
}

func TestApplyWebhookRetriesAfterTransientUpdateFailure(t *testing.T) {
	f := newLifecycleFixture(t)
	b := f.seedBooking(t, 15*time.Minute)
	ref := paymentDomain.Reference(b.ID())

	// The first delivery dies on a transient storage error after passing
	// every check; the provider sees the failure and redelivers.
	f.repo.failNextUpdate = errors.New("connection reset by peer")
	_, err := f.service.ApplyWebhook(context.Background(), ref, "PAID")
	require.Error(t, err)

	fresh, ferr := f.repo.FindByID(context.Background(), b.ID())
	require.NoError(t, ferr)
	require.Equal(t, bookingDomain.StatusPending, fresh.Status())

	// The redelivery must not be mistaken for a duplicate.
	status, err := f.service.ApplyWebhook(context.Background(), ref, "PAID")
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusPaid, status)
	assert.Equal(t, []string{"booking.paid"}, f.publisher.types())
}

func TestApplyWebhookAfterTerminalReportsCommittedStatus(t *testing.T) {
	f := newLifecycleFixture(t)
	b := f.seedBooking(t, 15*time.Minute)
	ref := paymentDomain.Reference(b.ID())

	_, err := f.service.ApplyWebhook(context.Background(), ref, "PAID")
	require.NoError(t, err)

	// A contradictory late webhook must not move a paid booking.
	status, err := f.service.ApplyWebhook(context.Background(), ref, "FAILED")
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusPaid, status)
	assert.Contains(t, f.index.owned, b.ID())
}

func TestApplyWebhookUnmappedStatus(t *testing.T) {
	f := newLifecycleFixture(t)
	b := f.seedBooking(t, 15*time.Minute)

	_, err := f.service.ApplyWebhook(context.Background(), paymentDomain.Reference(b.ID()), "REFUND_PENDING")
	assert.ErrorIs(t, err, domain.ErrUnmappedStatus)

	// The booking is untouched.
	fresh, ferr := f.repo.FindByID(context.Background(), b.ID())
	require.NoError(t, ferr)
	assert.Equal(t, bookingDomain.StatusPending, fresh.Status())
}

func TestApplyWebhookBadReference(t *testing.T) {
	f := newLifecycleFixture(t)

	_, err := f.service.ApplyWebhook(context.Background(), "not-a-reference", "PAID")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestApplyWebhookUnknownBooking(t *testing.T) {
	f := newLifecycleFixture(t)

	_, err := f.service.ApplyWebhook(context.Background(), paymentDomain.Reference(uuid.New()), "PAID")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancelPendingBooking(t *testing.T) {
	f := newLifecycleFixture(t)
	b := f.seedBooking(t, 15*time.Minute)

	status, err := f.service.Cancel(context.Background(), b.ID())
	require.NoError(t, err)

	assert.Equal(t, bookingDomain.StatusCancelled, status)
	assert.NotContains(t, f.index.owned, b.ID())
	assert.Equal(t, []string{"booking.cancelled"}, f.publisher.types())
}

func TestOverrideRejectsUnknownStatus(t *testing.T) {
	f := newLifecycleFixture(t)
	b := f.seedBooking(t, 15*time.Minute)

	_, err := f.service.Override(context.Background(), b.ID(), bookingDomain.Status("refunded"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestOverrideMarksPaid(t *testing.T) {
	f := newLifecycleFixture(t)
	b := f.seedBooking(t, 15*time.Minute)

	status, err := f.service.Override(context.Background(), b.ID(), bookingDomain.StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusPaid, status)
}

func TestLostUpdateRaceReportsCommittedStatus(t *testing.T) {
	f := newLifecycleFixture(t)
	b := f.seedBooking(t, 15*time.Minute)

	// Simulate a concurrent writer: our update hits a version conflict while
	// the stored booking is already paid.
	committed := bookingDomain.Reconstitute(
		b.ID(), b.CustomerName(), b.CustomerPhone(), b.Slots(),
		b.Subtotal(), b.Discount(), b.Total(), b.PromoCode(),
		bookingDomain.StatusPaid, b.Note(), b.Deadline(), 2,
		b.CreatedAt(), b.UpdatedAt(),
	)
	stale := bookingDomain.Reconstitute(
		b.ID(), b.CustomerName(), b.CustomerPhone(), b.Slots(),
		b.Subtotal(), b.Discount(), b.Total(), b.PromoCode(),
		bookingDomain.StatusPending, b.Note(), b.Deadline(), 1,
		b.CreatedAt(), b.UpdatedAt(),
	)
	f.repo.bookings[b.ID()] = committed
	f.repo.conflictNextUpdate = true

	status, err := f.service.apply(context.Background(), stale, bookingDomain.StatusExpired)
	require.NoError(t, err)

	// The winner's status stands and no slots were released.
	assert.Equal(t, bookingDomain.StatusPaid, status)
	assert.Contains(t, f.index.owned, b.ID())
	assert.Empty(t, f.publisher.types())
}

func TestExpireOverdue(t *testing.T) {
	f := newLifecycleFixture(t)
	overdue := f.seedBooking(t, -time.Minute) // deadline already past
	fresh := f.seedBooking(t, 15*time.Minute)

	count, err := f.service.ExpireOverdue(context.Background(), time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, 1, count)

	expired, _ := f.repo.FindByID(context.Background(), overdue.ID())
	assert.Equal(t, bookingDomain.StatusExpired, expired.Status())
	assert.NotContains(t, f.index.owned, overdue.ID())

	untouched, _ := f.repo.FindByID(context.Background(), fresh.ID())
	assert.Equal(t, bookingDomain.StatusPending, untouched.Status())
	assert.Contains(t, f.index.owned, fresh.ID())
}

func TestExpireOverdueSkipsAlreadyTerminal(t *testing.T) {
	f := newLifecycleFixture(t)
	b := f.seedBooking(t, -time.Minute)

	_, err := f.service.ApplyWebhook(context.Background(), paymentDomain.Reference(b.ID()), "PAID")
	require.NoError(t, err)

	count, err := f.service.ExpireOverdue(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
