package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/benchcutlogic/local-weather/internal/observability"
)

// deliverTimeout bounds how long one event may occupy the dispatch loop.
const deliverTimeout = 2 * time.Second

// Dispatcher decouples event producers from sink latency: Emit enqueues onto
// a bounded buffer and returns immediately, a single worker fans events out
// to the configured sinks in order. When the buffer is full the event is
// dropped and counted, never blocked on.
type Dispatcher struct {
	sinks   []Sink
	events  chan Event
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewDispatcher creates a dispatcher with the given buffer capacity.
func NewDispatcher(buffer int, logger *slog.Logger, metrics *observability.Metrics, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks:   sinks,
		events:  make(chan Event, buffer),
		logger:  logger,
		metrics: metrics,
	}
}

// Emit enqueues an event for delivery. Never blocks.
func (d *Dispatcher) Emit(_ context.Context, e Event) {
	select {
	case d.events <- e:
		d.metrics.AnalyticsEvents.WithLabelValues(e.Name).Inc()
	default:
		d.metrics.AnalyticsDropped.Inc()
		d.logger.Warn("analytics buffer full, dropping event", "event", e.Name)
	}
}

// Run delivers buffered events until the context is cancelled, then drains
// whatever is still queued before returning.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("analytics dispatcher started", "sinks", len(d.sinks), "buffer", cap(d.events))
	for {
		select {
		case <-ctx.Done():
			d.drain()
			d.logger.Info("analytics dispatcher stopping", "reason", ctx.Err())
			return nil
		case e := <-d.events:
			d.deliver(e)
		}
	}
}

func (d *Dispatcher) deliver(e Event) {
	// Delivery outlives the run context so shutdown drain still flushes.
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()
	for _, s := range d.sinks {
		s.Emit(ctx, e)
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case e := <-d.events:
			d.deliver(e)
		default:
			return
		}
	}
}
