package events

import (
	"encoding/json"
	"time"
)

// Routing keys on the events exchange.
const (
	TaskCreated          = "task.created"
	TaskStatusChanged    = "task.status_changed"
	ProjectMemberAdded   = "project.member_added"
	ProjectMemberRemoved = "project.member_removed"
	DailyUpdateCreated   = "daily_update.created"
)

// Event is the envelope written to the broker.
type Event struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

func NewEvent(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}, nil
}

type TaskCreatedPayload struct {
	TaskID     int64  `json:"task_id"`
	ProjectID  int64  `json:"project_id"`
	Status     string `json:"status"`
	AssigneeID *int64 `json:"assignee_id"`
	ActorID    int64  `json:"actor_id"`
}

type TaskStatusChangedPayload struct {
	TaskID    int64  `json:"task_id"`
	ProjectID int64  `json:"project_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	ActorID   int64  `json:"actor_id"`
}

type MembershipPayload struct {
	ProjectID int64 `json:"project_id"`
	UserID    int64 `json:"user_id"`
	ActorID   int64 `json:"actor_id"`
}

type DailyUpdateCreatedPayload struct {
	UpdateID int64 `json:"update_id"`
	UserID   int64 `json:"user_id"`
}
