package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"teamtracker/pkg/trace"

	"go.uber.org/zap"
)

type recordingEnqueuer struct {
	keys    []string
	bodies  []json.RawMessage
	traces  []string
	failErr error
}

func (r *recordingEnqueuer) Enqueue(_ context.Context, key string, payload json.RawMessage, traceID string) error {
	if r.failErr != nil {
		return r.failErr
	}
	r.keys = append(r.keys, key)
	r.bodies = append(r.bodies, payload)
	r.traces = append(r.traces, traceID)
	return nil
}

func TestOutboxPublisherEnqueuesEnvelope(t *testing.T) {
	store := &recordingEnqueuer{}
	pub := NewOutboxPublisher(store, zap.NewNop())

	ctx := trace.WithContext(context.Background(), "trace-1")
	pub.Publish(ctx, DailyUpdateCreated, DailyUpdateCreatedPayload{UpdateID: 7, UserID: 3})

	if len(store.keys) != 1 || store.keys[0] != DailyUpdateCreated || store.traces[0] != "trace-1" {
		t.Fatalf("unexpected enqueue %v %v", store.keys, store.traces)
	}
	var evt Event
	if err := json.Unmarshal(store.bodies[0], &evt); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if evt.Type != DailyUpdateCreated || evt.OccurredAt.IsZero() {
		t.Errorf("unexpected envelope %+v", evt)
	}
}

func TestOutboxPublisherSwallowsErrors(t *testing.T) {
	pub := NewOutboxPublisher(&recordingEnqueuer{failErr: errors.New("db down")}, zap.NewNop())
	// must not panic or block
	pub.Publish(context.Background(), TaskCreated, TaskCreatedPayload{TaskID: 1})
}
