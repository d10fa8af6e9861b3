package events

import (
	"context"
	"errors"
	"time"

	"teamtracker/pkg/circuitbreaker"
	"teamtracker/pkg/logger"
	"teamtracker/pkg/metrics"

	"go.uber.org/zap"
)

// Publisher emits activity events. Publishing is best effort: a failure is
// logged and counted but never fails the request that caused it.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any)
}

// Sink is the broker side of a publisher; *mq.Publisher satisfies it.
type Sink interface {
	PublishWithContext(ctx context.Context, routingKey string, payload any) error
}

type Nop struct{}

func (Nop) Publish(context.Context, string, any) {}

const publishTimeout = 2 * time.Second

type BrokerPublisher struct {
	sink    Sink
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewBrokerPublisher(sink Sink, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *BrokerPublisher {
	if breaker == nil {
		breaker = circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig())
	}
	return &BrokerPublisher{
		sink:    sink,
		breaker: breaker,
		logger:  logger,
	}
}

func (p *BrokerPublisher) Publish(ctx context.Context, eventType string, payload any) {
	log := logger.WithTrace(ctx, p.logger)

	evt, err := NewEvent(eventType, payload)
	if err != nil {
		log.Error("Failed to encode event", zap.String("type", eventType), zap.Error(err))
		metrics.IncrementEventPublish(eventType, "failed")
		return
	}

	err = p.breaker.Execute(func() error {
		// detached from the request so a client hang-up does not drop the event
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		return p.sink.PublishWithContext(pubCtx, eventType, evt)
	})

	switch {
	case err == nil:
		metrics.IncrementEventPublish(eventType, "success")
		log.Debug("Event published", zap.String("type", eventType))
	case errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen):
		metrics.IncrementEventPublish(eventType, "dropped")
		log.Warn("Event dropped, broker circuit open", zap.String("type", eventType))
	default:
		metrics.IncrementEventPublish(eventType, "failed")
		log.Warn("Failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
