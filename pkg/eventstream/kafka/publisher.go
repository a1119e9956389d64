// Package kafka implements the eventstream publisher on top of a Kafka
// topic using segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/phasorlabs/phasor/pkg/eventstream"
)

// Config holds the Kafka publisher settings.
type Config struct {
	// Brokers is the list of bootstrap broker addresses.
	Brokers []string

	// Topic is the topic all events are published to.
	Topic string
}

// Publisher publishes events to a Kafka topic. Messages are keyed by owner
// id so all events for one owner land on one partition in order.
type Publisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewPublisher creates a Kafka-backed eventstream publisher.
func NewPublisher(cfg Config, logger *zap.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka publisher requires a topic")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &Publisher{writer: writer, logger: logger}, nil
}

// PublishBatch publishes a batch ingestion event keyed by owner id.
func (p *Publisher) PublishBatch(ctx context.Context, event *eventstream.BatchIngestedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	return p.publish(ctx, event.Batch.OwnerID, event.EventType, event)
}

// PublishSession publishes a session persistence event keyed by owner id.
func (p *Publisher) PublishSession(ctx context.Context, event *eventstream.SessionPersistedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	return p.publish(ctx, event.OwnerID, event.EventType, event)
}

func (p *Publisher) publish(ctx context.Context, key, eventType string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", eventType, err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing %s event: %w", eventType, err)
	}

	p.logger.Debug("published event",
		zap.String("event_type", eventType),
		zap.String("key", key),
	)

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
