package notification

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	bookingDomain "github.com/voxprohub/service-booking/internal/domain/booking"
	"github.com/voxprohub/service-booking/internal/domain/payment"
	"github.com/voxprohub/service-booking/internal/events"
)

// EventPublisher is the outbound channel the dispatcher fans events out on.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, ce events.CloudEvent) error
}

// Dispatcher composes human-readable notifications for booking lifecycle
// changes and publishes them best-effort. A failure here never rolls back a
// booking; it is logged and dropped.
type Dispatcher struct {
	publisher  EventPublisher
	adminPhone string
	logger     *zap.Logger
}

// NewDispatcher creates a dispatcher. adminPhone is the studio admin's
// WhatsApp number in international format.
func NewDispatcher(publisher EventPublisher, adminPhone string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		publisher:  publisher,
		adminPhone: adminPhone,
		logger:     logger,
	}
}

// BookingChanged publishes a lifecycle event for the booking's new status.
// Errors are swallowed after logging.
func (d *Dispatcher) BookingChanged(ctx context.Context, b *bookingDomain.Booking, eventType string) {
	evt := events.BookingStatusEvent{
		BookingID:     b.ID(),
		Reference:     payment.Reference(b.ID()),
		CustomerName:  b.CustomerName(),
		CustomerPhone: b.CustomerPhone(),
		Status:        string(b.Status()),
		Total:         b.Total(),
		Message:       d.WhatsAppLink(b),
		OccurredAt:    time.Now().UTC(),
	}

	ce, err := events.NewCloudEvent("service-booking", eventType, evt)
	if err != nil {
		d.logger.Error("failed to build notification event",
			zap.String("booking_id", b.ID().String()),
			zap.Error(err),
		)
		return
	}
	ce.Subject = evt.Reference

	if err := d.publisher.PublishEvent(ctx, events.TopicBookingEvents, ce); err != nil {
		d.logger.Warn("notification dropped",
			zap.String("booking_id", b.ID().String()),
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}

// WhatsAppLink builds the deep link a customer can use to message the studio
// admin about the booking.
func (d *Dispatcher) WhatsAppLink(b *bookingDomain.Booking) string {
	if d.adminPhone == "" {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Halo, saya %s. Booking %s (%s):\n", b.CustomerName(), b.ID(), b.Status())
	for _, s := range b.Slots() {
		fmt.Fprintf(&sb, "- %s %s %s\n", s.RoomID, s.Date, s.Interval())
	}
	fmt.Fprintf(&sb, "Total: Rp%d", b.Total())

	return fmt.Sprintf("https://wa.me/%s?text=%s", d.adminPhone, url.QueryEscape(sb.String()))
}
