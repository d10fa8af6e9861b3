package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIncrementAuthEvent(t *testing.T) {
	before := testutil.ToFloat64(AuthEventCount.WithLabelValues("login", "success"))
	IncrementAuthEvent("login", "success")
	after := testutil.ToFloat64(AuthEventCount.WithLabelValues("login", "success"))

	if after-before != 1 {
		t.Fatalf("expected counter to increase by 1, got %v", after-before)
	}
}

func TestIncrementTaskStatusChange(t *testing.T) {
	IncrementTaskStatusChange("todo", "done")
	if got := testutil.ToFloat64(TaskStatusChangeCount.WithLabelValues("todo", "done")); got < 1 {
		t.Fatalf("expected at least one recorded transition, got %v", got)
	}
}
