package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/benchcutlogic/local-weather/internal/config"
	"github.com/benchcutlogic/local-weather/internal/refresh"
)

// drainTimeout bounds how long FetchBatch waits for messages beyond the
// first one. A refresh batch never needs to be full; it just amortizes
// commits when notifications arrive in bursts.
const drainTimeout = 100 * time.Millisecond

// RefreshReader consumes summary-refresh notifications from Kafka.
// It implements refresh.BatchSource.
type RefreshReader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewRefreshReader creates a consumer-group reader for the configured
// refresh topic.
func NewRefreshReader(cfg *config.Config, logger *slog.Logger) *RefreshReader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.RefreshTopic,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
	return &RefreshReader{reader: r, logger: logger}
}

// FetchBatch blocks for the first pending notification, then drains up to
// max-1 more without waiting long for stragglers.
func (r *RefreshReader) FetchBatch(ctx context.Context, max int) ([]refresh.Notification, error) {
	first, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}

	batch := make([]refresh.Notification, 0, max)
	batch = append(batch, r.mapMessage(first))

	drainCtx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	for len(batch) < max {
		msg, err := r.reader.FetchMessage(drainCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			// Return what we have; the pipeline will see the failure on the
			// next fetch if it persists.
			r.logger.Warn("refresh drain stopped", "error", err)
			break
		}
		batch = append(batch, r.mapMessage(msg))
	}

	return batch, nil
}

func (r *RefreshReader) Close() error {
	return r.reader.Close()
}

// mapMessage converts a Kafka message into a refresh notification whose
// Commit acknowledges the consumer-group offset.
func (r *RefreshReader) mapMessage(msg kafkago.Message) refresh.Notification {
	return refresh.Notification{
		Value:     msg.Value,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Commit: func(ctx context.Context) error {
			return r.reader.CommitMessages(ctx, msg)
		},
	}
}
