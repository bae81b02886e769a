package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Topic the booking service publishes lifecycle events to.
const TopicBookingEvents = "booking.events"

// Event types.
const (
	BookingCreated   = "booking.created"
	BookingPaid      = "booking.paid"
	BookingCancelled = "booking.cancelled"
	BookingExpired   = "booking.expired"
	BookingFailed    = "booking.failed"
)

// CloudEvent is the lightweight envelope every published event is wrapped in.
// Subject identifies the aggregate the event is about (here the booking
// reference) and doubles as the Kafka partition key.
type CloudEvent struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	Subject     string          `json:"subject,omitempty"`
	Type        string          `json:"type"`
	Time        time.Time       `json:"time"`
	ContentType string          `json:"datacontenttype"`
	Data        json.RawMessage `json:"data"`
}

// NewCloudEvent wraps data in a CloudEvent envelope.
func NewCloudEvent(source, eventType string, data any) (CloudEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return CloudEvent{}, err
	}
	return CloudEvent{
		ID:          uuid.New().String(),
		Source:      source,
		Type:        eventType,
		Time:        time.Now().UTC(),
		ContentType: "application/json",
		Data:        raw,
	}, nil
}

// ParseCloudEvent decodes a CloudEvent envelope.
func ParseCloudEvent(raw []byte) (CloudEvent, error) {
	var ce CloudEvent
	err := json.Unmarshal(raw, &ce)
	return ce, err
}

// ParseData decodes the event payload into v.
func (ce CloudEvent) ParseData(v any) error {
	return json.Unmarshal(ce.Data, v)
}

// BookingStatusEvent is the payload of every booking lifecycle event.
type BookingStatusEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	Reference     string    `json:"reference"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	Status        string    `json:"status"`
	Total         int64     `json:"total"`
	Message       string    `json:"message,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
