package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"teamtracker/pkg/circuitbreaker"

	"go.uber.org/zap"
)

type recordingSink struct {
	mu     sync.Mutex
	err    error
	keys   []string
	events []Event
}

func (s *recordingSink) PublishWithContext(_ context.Context, routingKey string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, routingKey)
	if evt, ok := payload.(Event); ok {
		s.events = append(s.events, evt)
	}
	return s.err
}

func TestBrokerPublisher_Publish(t *testing.T) {
	sink := &recordingSink{}
	p := NewBrokerPublisher(sink, nil, zap.NewNop())

	p.Publish(context.Background(), TaskCreated, TaskCreatedPayload{TaskID: 7, ProjectID: 3, Status: "todo"})

	if len(sink.keys) != 1 || sink.keys[0] != TaskCreated {
		t.Fatalf("unexpected routing keys %v", sink.keys)
	}
	evt := sink.events[0]
	if evt.Type != TaskCreated {
		t.Errorf("unexpected event type %q", evt.Type)
	}

	var payload TaskCreatedPayload
	if err := json.Unmarshal(evt.Data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.TaskID != 7 || payload.ProjectID != 3 {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestBrokerPublisher_BreakerOpens(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{
		FailureThreshold:    2,
		SuccessThreshold:    1,
		Timeout:             time.Minute,
		HalfOpenMaxRequests: 1,
	})
	p := NewBrokerPublisher(sink, breaker, zap.NewNop())

	for i := 0; i < 5; i++ {
		p.Publish(context.Background(), DailyUpdateCreated, DailyUpdateCreatedPayload{UpdateID: int64(i)})
	}

	if len(sink.keys) != 2 {
		t.Errorf("expected sink to be skipped once the breaker opens, got %d calls", len(sink.keys))
	}
	if breaker.GetState() != circuitbreaker.StateOpen {
		t.Errorf("expected open breaker, got %s", breaker.GetState())
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	p.Publish(context.Background(), TaskCreated, nil)
}
