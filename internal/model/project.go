package model

import "time"

type Project struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedByID int64     `json:"-"`
	CreatedBy   *User     `json:"created_by"`
	TeamMembers []User    `json:"team_members"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
