// Package refresh consumes summary-refresh notifications and invalidates the
// web tier's summary cache, so a regenerated forecast reaches users before
// the cache TTL runs out.
package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/benchcutlogic/local-weather/internal/observability"
)

// Notification is one refresh message as read from the broker. Commit
// acknowledges the message after it has been applied; it may be nil when the
// source does not track offsets.
type Notification struct {
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// BatchSource reads up to max pending notifications, blocking until at least
// one is available or the context is cancelled.
type BatchSource interface {
	FetchBatch(ctx context.Context, max int) ([]Notification, error)
}

// Invalidator drops a city's cached summary.
type Invalidator interface {
	Invalidate(citySlug string)
}

// payload is the wire shape published by forecast-core after a model run.
type payload struct {
	CitySlug    string    `json:"city_slug"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Pipeline is the consume-decode-invalidate loop.
type Pipeline struct {
	source      BatchSource
	invalidator Invalidator
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a refresh pipeline over the given source and cache.
func New(source BatchSource, invalidator Invalidator, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		source:      source,
		invalidator: invalidator,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has applied at least one
// notification, or an error describing why it is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("refresh pipeline has not processed any notifications yet")
	}
	return nil
}

// Run executes the consume loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("refresh pipeline started", "batch_size", p.batchSize)
	p.metrics.RefreshRunning.Set(1)
	defer p.metrics.RefreshRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during broker outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("refresh pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one consume cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	batch, err := p.source.FetchBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("fetch refresh batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(batch) == 0 {
		return ctx.Err() == nil
	}

	*backoff = 200 * time.Millisecond

	applied := 0
	for _, n := range batch {
		if err := p.apply(n); err != nil {
			p.logger.Warn("refresh notification skipped",
				"error", err,
				"topic", n.Topic,
				"partition", n.Partition,
				"offset", n.Offset,
			)
			p.metrics.RefreshErrors.Inc()
		} else {
			applied++
		}
		// Commit either way: a malformed notification never becomes
		// applicable, so redelivering it only repeats the decode failure.
		p.commit(ctx, n)
	}

	if applied > 0 {
		p.ready.Store(true)
	}
	return true
}

// apply decodes one notification and invalidates the cache entry it names.
func (p *Pipeline) apply(n Notification) error {
	var msg payload
	if err := json.Unmarshal(n.Value, &msg); err != nil {
		return fmt.Errorf("decode refresh payload: %w", err)
	}
	if msg.CitySlug == "" {
		return errors.New("refresh payload has no city_slug")
	}

	p.invalidator.Invalidate(msg.CitySlug)
	p.metrics.RefreshProcessed.Inc()
	p.logger.Debug("summary cache invalidated",
		"city", msg.CitySlug,
		"generated_at", msg.GeneratedAt.Format(time.RFC3339),
	)
	return nil
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commit acknowledges the notification if the source tracks offsets.
func (p *Pipeline) commit(ctx context.Context, n Notification) {
	if n.Commit == nil {
		return
	}
	if err := n.Commit(ctx); err != nil {
		p.logger.Warn("commit refresh offset failed", "error", err,
			"topic", n.Topic, "partition", n.Partition, "offset", n.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
