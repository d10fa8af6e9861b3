package events

import (
	"context"
	"encoding/json"

	"teamtracker/pkg/logger"
	"teamtracker/pkg/metrics"
	"teamtracker/pkg/trace"

	"go.uber.org/zap"
)

// Enqueuer stores an encoded event for later delivery; *outbox.Repository
// satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, routingKey string, payload json.RawMessage, traceID string) error
}

// OutboxPublisher records events in the database outbox instead of talking to
// the broker, so events survive a broker outage.
type OutboxPublisher struct {
	store  Enqueuer
	logger *zap.Logger
}

func NewOutboxPublisher(store Enqueuer, logger *zap.Logger) *OutboxPublisher {
	return &OutboxPublisher{store: store, logger: logger}
}

func (p *OutboxPublisher) Publish(ctx context.Context, eventType string, payload any) {
	log := logger.WithTrace(ctx, p.logger)

	evt, err := NewEvent(eventType, payload)
	if err == nil {
		var data []byte
		if data, err = json.Marshal(evt); err == nil {
			enqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
			err = p.store.Enqueue(enqCtx, eventType, data, trace.FromContext(ctx))
			cancel()
		}
	}

	if err != nil {
		metrics.IncrementEventPublish(eventType, "failed")
		log.Warn("Failed to enqueue event", zap.String("type", eventType), zap.Error(err))
		return
	}
	metrics.IncrementEventPublish(eventType, "queued")
}
