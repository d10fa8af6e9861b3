package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestTranslateError(t *testing.T) {
	if err := translateError(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	if err := translateError(fmt.Errorf("scan: %w", pgx.ErrNoRows)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	err := translateError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	var dup *DuplicateError
	if !errors.As(err, &dup) || dup.Field != "email" {
		t.Errorf("expected duplicate email, got %v", err)
	}
	if !errors.Is(err, ErrDuplicate) {
		t.Error("expected DuplicateError to match ErrDuplicate")
	}

	if err := translateError(&pgconn.PgError{Code: "23503"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for fk violation, got %v", err)
	}

	other := errors.New("connection reset")
	if err := translateError(other); err != other {
		t.Errorf("expected passthrough, got %v", err)
	}
}

func TestFieldFromConstraint(t *testing.T) {
	cases := map[string]string{
		"users_username_key": "username",
		"users_email_key":    "email",
		"plain":              "plain",
	}
	for in, want := range cases {
		if got := fieldFromConstraint(in); got != want {
			t.Errorf("fieldFromConstraint(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrefixed(t *testing.T) {
	got := prefixed("u", "id, username,email")
	if got != "u.id, u.username, u.email" {
		t.Errorf("unexpected prefixed columns %q", got)
	}
}
