package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/benchcutlogic/local-weather/internal/analytics"
	"github.com/benchcutlogic/local-weather/internal/config"
)

// EventSink produces analytics events to a Kafka topic.
// It implements analytics.Sink; delivery failures are logged and dropped,
// never surfaced to the emitting code path.
type EventSink struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewEventSink creates a Kafka producer for the configured analytics topic.
func NewEventSink(cfg *config.Config, logger *slog.Logger) *EventSink {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.AnalyticsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}
	return &EventSink{writer: w, logger: logger}
}

// Emit serializes and publishes one analytics event. Keying by session id
// keeps a session's events ordered within a partition.
func (s *EventSink) Emit(ctx context.Context, e analytics.Event) {
	msg, err := serializeEvent(e)
	if err != nil {
		s.logger.Warn("analytics event not serializable", "event", e.Name, "error", err)
		return
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		s.logger.Warn("analytics event dropped", "event", e.Name, "error", err)
	}
}

func (s *EventSink) Close() error {
	return s.writer.Close()
}

// serializeEvent marshals an analytics event into a Kafka message.
func serializeEvent(e analytics.Event) (kafkago.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize analytics event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(e.SessionID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event", Value: []byte(e.Name)},
			{Key: "emitted_at", Value: []byte(e.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}
