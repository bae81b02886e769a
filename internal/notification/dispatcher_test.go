package notification

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	bookingDomain "github.com/voxprohub/service-booking/internal/domain/booking"
	"github.com/voxprohub/service-booking/internal/domain/payment"
	"github.com/voxprohub/service-booking/internal/events"
)

type capturingPublisher struct {
	topic  string
	events []events.CloudEvent
	err    error
}

func (p *capturingPublisher) PublishEvent(_ context.Context, topic string, ce events.CloudEvent) error {
	if p.err != nil {
		return p.err
	}
	p.topic = topic
	p.events = append(p.events, ce)
	return nil
}

func testBooking() *bookingDomain.Booking {
	return bookingDomain.NewBooking("Rina", "+628111222333",
		[]bookingDomain.ReservedSlot{{RoomID: "POD", Date: "2026-09-01", StartHour: 10, EndHour: 12}},
		200000, 0, "", "", 15*time.Minute)
}

func TestBookingChangedPublishesEvent(t *testing.T) {
	pub := &capturingPublisher{}
	d := NewDispatcher(pub, "628123456789", zap.NewNop())
	b := testBooking()

	d.BookingChanged(context.Background(), b, events.BookingCreated)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TopicBookingEvents, pub.topic)
	assert.Equal(t, events.BookingCreated, pub.events[0].Type)
	assert.Equal(t, payment.Reference(b.ID()), pub.events[0].Subject)

	var evt events.BookingStatusEvent
	require.NoError(t, pub.events[0].ParseData(&evt))
	assert.Equal(t, b.ID(), evt.BookingID)
	assert.Equal(t, "pending", evt.Status)
	assert.Equal(t, int64(200000), evt.Total)
	assert.Contains(t, evt.Message, "wa.me/628123456789")
}

func TestBookingChangedSwallowsPublishErrors(t *testing.T) {
	pub := &capturingPublisher{err: errors.New("broker down")}
	d := NewDispatcher(pub, "628123456789", zap.NewNop())

	// Must not panic or propagate.
	d.BookingChanged(context.Background(), testBooking(), events.BookingCreated)
}

func TestWhatsAppLink(t *testing.T) {
	d := NewDispatcher(&capturingPublisher{}, "628123456789", zap.NewNop())
	b := testBooking()

	link := d.WhatsAppLink(b)
	require.True(t, strings.HasPrefix(link, "https://wa.me/628123456789?text="))

	u, err := url.Parse(link)
	require.NoError(t, err)
	text := u.Query().Get("text")
	assert.Contains(t, text, "Rina")
	assert.Contains(t, text, "POD 2026-09-01 10:00-12:00")
	assert.Contains(t, text, "Rp200000")
}

func TestWhatsAppLinkWithoutAdminPhone(t *testing.T) {
	d := NewDispatcher(&capturingPublisher{}, "", zap.NewNop())
	assert.Empty(t, d.WhatsAppLink(testBooking()))
}
