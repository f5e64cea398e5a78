package analytics

import (
	"context"
	"log/slog"
	"time"
)

// LogSink writes events to the process log. It is the default sink in
// development and the fallback when Kafka is not configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink backed by the given logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, e Event) {
	attrs := make([]any, 0, 8+2*len(e.Fields))
	attrs = append(attrs,
		"event", e.Name,
		"city", e.CitySlug,
		"session", e.SessionID,
		"at", e.Timestamp.Format(time.RFC3339),
	)
	for k, v := range e.Fields {
		attrs = append(attrs, k, v)
	}
	s.logger.Info("analytics event", attrs...)
}
