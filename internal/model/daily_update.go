package model

import "time"

type DailyUpdate struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	User      *User     `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
