package events

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher writes CloudEvents to Kafka.
type Publisher struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

// NewPublisher creates a Kafka publisher for the given brokers.
func NewPublisher(brokers []string, logger *zap.Logger) *Publisher {
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
		WriteTimeout: 10 * time.Second,
		// Topics are pre-created in production; this covers dev setups.
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: writer, logger: logger}
}

// PublishEvent writes one CloudEvent to the topic, keyed by the event
// subject (the booking reference) so events for one booking stay ordered
// within a partition.
func (p *Publisher) PublishEvent(ctx context.Context, topic string, ce CloudEvent) error {
	raw, err := json.Marshal(ce)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Topic: topic,
		Key:   messageKey(ce),
		Value: raw,
	})
	if err != nil {
		p.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("type", ce.Type),
			zap.Error(err),
		)
		return err
	}

	p.logger.Debug("event published",
		zap.String("topic", topic),
		zap.String("type", ce.Type),
		zap.String("id", ce.ID),
	)
	return nil
}

// messageKey picks the partition key: the subject when set, the source
// otherwise.
func messageKey(ce CloudEvent) []byte {
	if ce.Subject != "" {
		return []byte(ce.Subject)
	}
	return []byte(ce.Source)
}

// Close closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
