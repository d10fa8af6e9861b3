package outbox

import (
	"context"
	"time"

	"teamtracker/pkg/metrics"
	"teamtracker/pkg/trace"

	"go.uber.org/zap"
)

// Store is the outbox access the Dispatcher needs; *Repository implements it.
type Store interface {
	Pending(ctx context.Context, limit int) ([]Record, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, maxAttempts int, retryAfter time.Duration) error
}

var _ Store = (*Repository)(nil)

// Sink delivers messages; *mq.Publisher implements it.
type Sink interface {
	PublishWithContext(ctx context.Context, routingKey string, payload any) error
}

// Dispatcher relays pending outbox events to the broker.
type Dispatcher struct {
	store       Store
	sink        Sink
	logger      *zap.Logger
	maxAttempts int
	interval    time.Duration
	batchSize   int
	retryAfter  time.Duration
}

func NewDispatcher(store Store, sink Sink, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:       store,
		sink:        sink,
		logger:      logger,
		maxAttempts: 5,
		interval:    time.Second,
		batchSize:   100,
		retryAfter:  5 * time.Second,
	}
}

// WithMaxAttempts sets how many deliveries are tried before an event fails.
func (d *Dispatcher) WithMaxAttempts(n int) *Dispatcher {
	if n > 0 {
		d.maxAttempts = n
	}
	return d
}

// WithInterval sets the polling interval.
func (d *Dispatcher) WithInterval(interval time.Duration) *Dispatcher {
	if interval > 0 {
		d.interval = interval
	}
	return d
}

// WithBatchSize sets how many events one poll loads.
func (d *Dispatcher) WithBatchSize(n int) *Dispatcher {
	if n > 0 {
		d.batchSize = n
	}
	return d
}

// Start polls until ctx is cancelled. Run it in its own goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting outbox dispatcher",
		zap.Int("max_attempts", d.maxAttempts),
		zap.Duration("interval", d.interval),
		zap.Int("batch_size", d.batchSize),
	)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Outbox dispatcher stopped")
			return
		case <-ticker.C:
			d.RunOnce(ctx)
		}
	}
}

// RunOnce delivers one batch of pending events and returns how many were sent.
func (d *Dispatcher) RunOnce(ctx context.Context) int {
	records, err := d.store.Pending(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("Failed to load pending events", zap.Error(err))
		return 0
	}

	sent := 0
	for _, rec := range records {
		pubCtx := trace.WithContext(ctx, rec.TraceID)
		if err := d.sink.PublishWithContext(pubCtx, rec.RoutingKey, rec.Payload); err != nil {
			metrics.IncrementEventPublish(rec.RoutingKey, "failed")
			d.logger.Warn("Failed to publish outbox event",
				zap.Int64("event_id", rec.ID),
				zap.String("routing_key", rec.RoutingKey),
				zap.Int("attempt", rec.Attempts+1),
				zap.Error(err),
			)
			if err := d.store.MarkFailed(ctx, rec.ID, d.maxAttempts, d.retryAfter); err != nil {
				d.logger.Error("Failed to mark event as failed", zap.Int64("event_id", rec.ID), zap.Error(err))
			}
			continue
		}

		metrics.IncrementEventPublish(rec.RoutingKey, "success")
		if err := d.store.MarkSent(ctx, rec.ID); err != nil {
			// the event will be delivered again on the next tick
			d.logger.Error("Failed to mark event as sent", zap.Int64("event_id", rec.ID), zap.Error(err))
			continue
		}
		sent++
	}

	if sent > 0 {
		d.logger.Debug("Outbox events published", zap.Int("count", sent))
	}
	return sent
}
