package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"teamtracker/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const taskSelect = `
        SELECT t.id, t.title, t.description, t.project_id, p.title, t.status, t.assignee_id,
               t.due_date, t.created_at, t.updated_at,
               a.id, a.username, a.email, a.first_name, a.last_name, a.date_joined
        FROM tasks t
        JOIN projects p ON p.id = t.project_id
        LEFT JOIN users a ON a.id = t.assignee_id
`

const visibleToUser = `
        EXISTS (SELECT 1 FROM project_members pm WHERE pm.project_id = t.project_id AND pm.user_id = $1)
`

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var (
		t       model.Task
		status  string
		dueDate *time.Time

		assigneeID          *int64
		username, email     *string
		firstName, lastName *string
		dateJoined          *time.Time
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.ProjectID, &t.ProjectTitle, &status, &t.AssigneeID,
		&dueDate, &t.CreatedAt, &t.UpdatedAt,
		&assigneeID, &username, &email, &firstName, &lastName, &dateJoined,
	)
	if err != nil {
		return nil, err
	}

	t.Status = model.TaskStatus(status)
	if dueDate != nil {
		t.DueDate = model.NewDate(*dueDate)
	}
	if assigneeID != nil {
		t.Assignee = &model.User{
			ID:         *assigneeID,
			Username:   deref(username),
			Email:      deref(email),
			FirstName:  deref(firstName),
			LastName:   deref(lastName),
			DateJoined: derefTime(dateJoined),
		}
	}
	return &t, nil
}

// scanInsertedID reads the id returned by the guarded insert. No row means
// the membership guard filtered the insert out.
func scanInsertedID(row pgx.Row) (int64, error) {
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAssigneeNotMember
		}
		return 0, translateError(err)
	}
	return id, nil
}

// missedUpdateError explains a guarded update that touched no row, given the
// row of a task existence query.
func missedUpdateError(row pgx.Row) error {
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrAssigneeNotMember
	}
	return ErrNotFound
}

func (r *TaskRepository) Create(ctx context.Context, t *model.Task) error {
	r.logger.Debug("Inserting task",
		zap.Int64("project_id", t.ProjectID),
		zap.String("title", t.Title),
		zap.String("status", string(t.Status)),
	)
	query := `
        INSERT INTO tasks (title, description, project_id, status, assignee_id, due_date)
        SELECT $1::varchar, $2::text, $3::bigint, $4::varchar, $5::bigint, $6::date
        WHERE $5::bigint IS NULL
           OR EXISTS (SELECT 1 FROM project_members WHERE project_id = $3::bigint AND user_id = $5::bigint)
        RETURNING id
    `
	id, err := scanInsertedID(r.db.QueryRow(ctx, query,
		t.Title, t.Description, t.ProjectID, string(t.Status), t.AssigneeID, dueDateArg(t.DueDate),
	))
	if err != nil {
		if !errors.Is(err, ErrAssigneeNotMember) {
			r.logger.Error("Failed to insert task",
				zap.Error(err),
				zap.Int64("project_id", t.ProjectID),
			)
		}
		return err
	}

	created, err := r.findByID(ctx, id)
	if err != nil {
		return fmt.Errorf("reload task %d: %w", id, err)
	}
	*t = *created

	r.logger.Info("Task inserted successfully",
		zap.Int64("task_id", id),
		zap.Int64("project_id", t.ProjectID),
	)
	return nil
}

func (r *TaskRepository) Update(ctx context.Context, t *model.Task) error {
	query := `
        UPDATE tasks
        SET title = $2, description = $3, project_id = $4::bigint, status = $5,
            assignee_id = $6::bigint, due_date = $7::date, updated_at = NOW()
        WHERE id = $1
          AND ($6::bigint IS NULL
               OR EXISTS (SELECT 1 FROM project_members WHERE project_id = $4::bigint AND user_id = $6::bigint))
    `
	tag, err := r.db.Exec(ctx, query,
		t.ID, t.Title, t.Description, t.ProjectID, string(t.Status), t.AssigneeID, dueDateArg(t.DueDate),
	)
	if err != nil {
		r.logger.Error("Failed to update task", zap.Int64("task_id", t.ID), zap.Error(err))
		return translateError(err)
	}

	if tag.RowsAffected() == 0 {
		return missedUpdateError(r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, t.ID))
	}

	updated, err := r.findByID(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("reload task %d: %w", t.ID, err)
	}
	*t = *updated
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete task", zap.Int64("task_id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) findByID(ctx context.Context, id int64) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRow(ctx, taskSelect+` WHERE t.id = $1`, id))
	if err != nil {
		return nil, translateError(err)
	}
	return t, nil
}

func (r *TaskRepository) FindVisible(ctx context.Context, id, userID int64) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRow(ctx, taskSelect+` WHERE `+visibleToUser+` AND t.id = $2`, userID, id))
	if err != nil {
		return nil, translateError(err)
	}
	return t, nil
}

func (r *TaskRepository) ListVisible(ctx context.Context, userID int64, projectID *int64) ([]model.Task, error) {
	r.logger.Debug("Listing tasks visible to user", zap.Int64("user_id", userID))

	query := taskSelect + ` WHERE ` + visibleToUser
	args := []any{userID}
	if projectID != nil {
		query += ` AND t.project_id = $2`
		args = append(args, *projectID)
	}
	query += ` ORDER BY t.created_at DESC, t.id DESC`

	tasks, err := r.list(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query tasks", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	return tasks, nil
}

// ListRecent returns the newest tasks system-wide.
func (r *TaskRepository) ListRecent(ctx context.Context, limit int) ([]model.Task, error) {
	return r.list(ctx, taskSelect+` ORDER BY t.created_at DESC, t.id DESC LIMIT $1`, limit)
}

func (r *TaskRepository) list(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// CountByStatus counts in a single grouped query so the buckets always sum to Total.
func (r *TaskRepository) CountByStatus(ctx context.Context) (model.TaskCounts, error) {
	var counts model.TaskCounts

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return counts, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return counts, err
		}
		counts.Add(model.TaskStatus(status), n)
	}
	return counts, rows.Err()
}

func dueDateArg(d *model.Date) *time.Time {
	if d == nil {
		return nil
	}
	return &d.Time
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
