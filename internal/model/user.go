package model

import (
	"time"

	"teamtracker/pkg/rbac"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	DateJoined   time.Time `json:"date_joined"`
	IsSuperuser  bool      `json:"-"`
	IsStaff      bool      `json:"-"`
	IsActive     bool      `json:"-"`
}

// Subject returns the identity used by permission checks.
func (u *User) Subject() rbac.Subject {
	return rbac.Subject{
		UserID:      u.ID,
		IsSuperuser: u.IsSuperuser,
		IsStaff:     u.IsStaff,
	}
}

// TokenPair is returned by register, login and refresh.
type TokenPair struct {
	User    *User  `json:"user,omitempty"`
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}
