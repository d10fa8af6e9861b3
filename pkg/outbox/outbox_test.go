package outbox

import (
	"os"
	"strings"
	"testing"
)

func TestStatusesMatchSchema(t *testing.T) {
	schema, err := os.ReadFile("../db/migrations/000002_outbox.up.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sql := string(schema)

	if !strings.Contains(sql, "DEFAULT '"+StatusPending+"'") {
		t.Errorf("status column default is not %q", StatusPending)
	}
	if !strings.Contains(sql, "WHERE status = '"+StatusPending+"'") {
		t.Errorf("pending index predicate does not match %q", StatusPending)
	}
	for _, s := range []string{StatusPending, StatusSent, StatusFailed} {
		if len(s) > 16 {
			t.Errorf("status %q does not fit VARCHAR(16)", s)
		}
	}
}
