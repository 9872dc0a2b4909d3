// Package events mirrors state mutations (cart updates, placed orders) to a
// Kafka topic for analytics. Publishing is best-effort: a nil sink or a broker
// failure never affects the state change that triggered the event.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const publishTimeout = 5 * time.Second

type Sink struct {
	writer *kafka.Writer
	log    *slog.Logger
}

func NewSink(brokers []string, topic string, log *slog.Logger) *Sink {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	return &Sink{writer: w, log: log}
}

// Publish sends one event keyed by its type. Errors are logged and swallowed.
func (s *Sink) Publish(ctx context.Context, eventType string, payload map[string]any) {
	if s == nil {
		return
	}

	event := map[string]any{"type": eventType}
	for k, v := range payload {
		event[k] = v
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.log.Error("event marshal failed", "type", eventType, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(eventType),
		Value: data,
	}); err != nil {
		s.log.Error("event publish failed", "type", eventType, "error", err)
	}
}

func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	if err := s.writer.Close(); err != nil {
		return fmt.Errorf("close event sink: %w", err)
	}
	return nil
}
