package repository

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"teamtracker/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeRow replays fixed column values into Scan, or fails with err.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(r.values))
	}
	for i, v := range r.values {
		if v == nil {
			continue
		}
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

func TestScanInsertedID(t *testing.T) {
	other := errors.New("connection reset")
	tests := []struct {
		name    string
		row     fakeRow
		wantID  int64
		wantErr error
	}{
		{"inserted", fakeRow{values: []any{int64(42)}}, 42, nil},
		{"guard filtered the insert", fakeRow{err: pgx.ErrNoRows}, 0, ErrAssigneeNotMember},
		{"wrapped no rows", fakeRow{err: fmt.Errorf("query: %w", pgx.ErrNoRows)}, 0, ErrAssigneeNotMember},
		{"project deleted concurrently", fakeRow{err: &pgconn.PgError{Code: "23503"}}, 0, ErrNotFound},
		{"driver error", fakeRow{err: other}, 0, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := scanInsertedID(tt.row)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if id != tt.wantID {
				t.Errorf("expected id %d, got %d", tt.wantID, id)
			}
		})
	}
}

func TestMissedUpdateError(t *testing.T) {
	if err := missedUpdateError(fakeRow{values: []any{true}}); !errors.Is(err, ErrAssigneeNotMember) {
		t.Errorf("existing task: expected ErrAssigneeNotMember, got %v", err)
	}
	if err := missedUpdateError(fakeRow{values: []any{false}}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing task: expected ErrNotFound, got %v", err)
	}
	other := errors.New("connection reset")
	if err := missedUpdateError(fakeRow{err: other}); err != other {
		t.Errorf("expected passthrough, got %v", err)
	}
}

func TestScanTask(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	due := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	assignee := int64(7)
	username, email := "bob", "bob@example.com"
	first, last := "Bob", ""

	row := fakeRow{values: []any{
		int64(1), "Write docs", "", int64(3), "Launch", "in_progress", &assignee,
		&due, created, created,
		&assignee, &username, &email, &first, &last, &created,
	}}
	task, err := scanTask(row)
	if err != nil {
		t.Fatalf("scanTask: %v", err)
	}
	if task.Status != model.StatusInProgress || task.ProjectTitle != "Launch" {
		t.Errorf("unexpected task %+v", task)
	}
	if task.DueDate == nil || !task.DueDate.Time.Equal(due) {
		t.Errorf("expected due date %v, got %v", due, task.DueDate)
	}
	if task.Assignee == nil || task.Assignee.Username != "bob" || !task.Assignee.DateJoined.Equal(created) {
		t.Errorf("unexpected assignee %+v", task.Assignee)
	}

	unassigned := fakeRow{values: []any{
		int64(2), "Triage", "", int64(3), "Launch", "todo", nil,
		nil, created, created,
		nil, nil, nil, nil, nil, nil,
	}}
	task, err = scanTask(unassigned)
	if err != nil {
		t.Fatalf("scanTask: %v", err)
	}
	if task.Assignee != nil || task.AssigneeID != nil || task.DueDate != nil {
		t.Errorf("expected no assignee or due date, got %+v", task)
	}

	if _, err := scanTask(fakeRow{err: pgx.ErrNoRows}); !errors.Is(translateError(err), ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing task, got %v", err)
	}
}

func TestDueDateArg(t *testing.T) {
	if dueDateArg(nil) != nil {
		t.Error("expected nil for no due date")
	}
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if got := dueDateArg(model.NewDate(day)); got == nil || !got.Equal(day) {
		t.Errorf("expected %v, got %v", day, got)
	}
}
