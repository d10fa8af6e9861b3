package repository

import (
	"context"

	"teamtracker/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const projectSelect = `
        SELECT p.id, p.title, p.description, p.created_by, p.created_at, p.updated_at,
               u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name,
               u.date_joined, u.is_superuser, u.is_staff, u.is_active
        FROM projects p
        JOIN users u ON u.id = p.created_by
`

type ProjectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	var u model.User
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.CreatedByID, &p.CreatedAt, &p.UpdatedAt,
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.DateJoined, &u.IsSuperuser, &u.IsStaff, &u.IsActive,
	)
	if err != nil {
		return nil, err
	}
	p.CreatedBy = &u
	p.TeamMembers = []model.User{}
	return &p, nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *model.Project) error {
	r.logger.Debug("Inserting project",
		zap.Int64("created_by", p.CreatedByID),
		zap.String("title", p.Title),
	)

	query := `
        INSERT INTO projects (title, description, created_by)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query, p.Title, p.Description, p.CreatedByID).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert project", zap.Error(err))
		return translateError(err)
	}

	if p.TeamMembers == nil {
		p.TeamMembers = []model.User{}
	}
	r.logger.Info("Project inserted successfully",
		zap.Int64("id", p.ID),
		zap.Int64("created_by", p.CreatedByID),
	)
	return nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id int64) (*model.Project, error) {
	p, err := scanProject(r.db.QueryRow(ctx, projectSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, translateError(err)
	}

	members, err := r.loadMembers(ctx, []int64{p.ID})
	if err != nil {
		return nil, err
	}
	if m, ok := members[p.ID]; ok {
		p.TeamMembers = m
	}
	return p, nil
}

// List returns every project, newest first, with creator and team loaded.
func (r *ProjectRepository) List(ctx context.Context) ([]model.Project, error) {
	rows, err := r.db.Query(ctx, projectSelect+` ORDER BY p.created_at DESC, p.id DESC`)
	if err != nil {
		r.logger.Error("Failed to query projects", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	ids := []int64{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			r.logger.Error("Failed to scan project row", zap.Error(err))
			return nil, err
		}
		projects = append(projects, *p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	members, err := r.loadMembers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if m, ok := members[projects[i].ID]; ok {
			projects[i].TeamMembers = m
		}
	}
	return projects, nil
}

func (r *ProjectRepository) loadMembers(ctx context.Context, projectIDs []int64) (map[int64][]model.User, error) {
	out := make(map[int64][]model.User, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}

	query := `
        SELECT pm.project_id, ` + prefixed("u", userColumns) + `
        FROM project_members pm
        JOIN users u ON u.id = pm.user_id
        WHERE pm.project_id = ANY($1)
        ORDER BY u.id
    `
	rows, err := r.db.Query(ctx, query, projectIDs)
	if err != nil {
		r.logger.Error("Failed to query project members", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var projectID int64
		var u model.User
		if err := rows.Scan(
			&projectID,
			&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
			&u.DateJoined, &u.IsSuperuser, &u.IsStaff, &u.IsActive,
		); err != nil {
			return nil, err
		}
		out[projectID] = append(out[projectID], u)
	}
	return out, rows.Err()
}

// Update writes title and description and bumps updated_at.
func (r *ProjectRepository) Update(ctx context.Context, p *model.Project) error {
	query := `
        UPDATE projects
        SET title = $2, description = $3, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at
    `
	if err := r.db.QueryRow(ctx, query, p.ID, p.Title, p.Description).Scan(&p.UpdatedAt); err != nil {
		r.logger.Error("Failed to update project", zap.Int64("project_id", p.ID), zap.Error(err))
		return translateError(err)
	}
	return nil
}

// Delete removes the project; tasks and memberships go with it via ON DELETE CASCADE.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete project", zap.Int64("project_id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	r.logger.Info("Project deleted", zap.Int64("project_id", id))
	return nil
}

func (r *ProjectRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// AddMember is idempotent: adding an existing member is a no-op.
func (r *ProjectRepository) AddMember(ctx context.Context, projectID, userID int64) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO project_members (project_id, user_id)
        VALUES ($1, $2)
        ON CONFLICT (project_id, user_id) DO NOTHING
    `, projectID, userID)
	if err != nil {
		r.logger.Error("Failed to add project member",
			zap.Int64("project_id", projectID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// RemoveMember is idempotent: removing a non-member is a no-op.
func (r *ProjectRepository) RemoveMember(ctx context.Context, projectID, userID int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`,
		projectID, userID,
	)
	if err != nil {
		r.logger.Error("Failed to remove project member",
			zap.Int64("project_id", projectID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (r *ProjectRepository) IsMember(ctx context.Context, projectID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM project_members WHERE project_id = $1 AND user_id = $2)`,
		projectID, userID,
	).Scan(&exists)
	return exists, err
}

func (r *ProjectRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n)
	return n, err
}
