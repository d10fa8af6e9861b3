package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"teamtracker/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrAssigneeNotMember is returned when a task write names an assignee
	// outside the target project's team.
	ErrAssigneeNotMember = errors.New("assignee is not a member of the project")
)

// DuplicateError reports which unique field collided.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value for %s", e.Field)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// ExistsUsername and ExistsEmail ignore the row with excludeID (0 for none).
	ExistsUsername(ctx context.Context, username string, excludeID int64) (bool, error)
	ExistsEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	Update(ctx context.Context, u *model.User) error
	List(ctx context.Context) ([]model.User, error)
}

type ProjectStore interface {
	Create(ctx context.Context, p *model.Project) error
	FindByID(ctx context.Context, id int64) (*model.Project, error)
	List(ctx context.Context) ([]model.Project, error)
	Update(ctx context.Context, p *model.Project) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	AddMember(ctx context.Context, projectID, userID int64) error
	RemoveMember(ctx context.Context, projectID, userID int64) error
	IsMember(ctx context.Context, projectID, userID int64) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type TaskStore interface {
	// Create and Update fail with ErrAssigneeNotMember when the assignee is
	// set and not on the project's team; the check and write are atomic.
	Create(ctx context.Context, t *model.Task) error
	Update(ctx context.Context, t *model.Task) error
	Delete(ctx context.Context, id int64) error
	// FindVisible and ListVisible only return tasks whose project has userID as a team member.
	FindVisible(ctx context.Context, id, userID int64) (*model.Task, error)
	ListVisible(ctx context.Context, userID int64, projectID *int64) ([]model.Task, error)
	ListRecent(ctx context.Context, limit int) ([]model.Task, error)
	CountByStatus(ctx context.Context) (model.TaskCounts, error)
}

type DailyUpdateStore interface {
	Create(ctx context.Context, u *model.DailyUpdate) error
	// ListByUser returns newest first; limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.DailyUpdate, error)
}

type TokenBlacklist interface {
	// Revoke adds jti for ttl and reports false if it was already revoked.
	Revoke(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}

var (
	_ UserStore        = (*UserRepository)(nil)
	_ ProjectStore     = (*ProjectRepository)(nil)
	_ TaskStore        = (*TaskRepository)(nil)
	_ DailyUpdateStore = (*DailyUpdateRepository)(nil)
	_ TokenBlacklist   = (*RedisTokenBlacklist)(nil)
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// translateError maps driver errors onto the repository sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return &DuplicateError{Field: fieldFromConstraint(pgErr.ConstraintName)}
		case foreignKeyViolation:
			// the referenced project or user is gone
			return ErrNotFound
		}
	}
	return err
}

// fieldFromConstraint turns "users_email_key" into "email".
func fieldFromConstraint(name string) string {
	name = strings.TrimSuffix(name, "_key")
	if i := strings.Index(name, "_"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// prefixed qualifies a comma separated column list with a table alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, c := range parts {
		parts[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}
