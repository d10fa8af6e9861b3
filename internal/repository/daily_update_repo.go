package repository

import (
	"context"

	"teamtracker/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type DailyUpdateRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDailyUpdateRepository(db *pgxpool.Pool, logger *zap.Logger) *DailyUpdateRepository {
	return &DailyUpdateRepository{db: db, logger: logger}
}

func (r *DailyUpdateRepository) Create(ctx context.Context, u *model.DailyUpdate) error {
	query := `
        INSERT INTO daily_updates (user_id, content)
        VALUES ($1, $2)
        RETURNING id, created_at
    `
	if err := r.db.QueryRow(ctx, query, u.UserID, u.Content).Scan(&u.ID, &u.CreatedAt); err != nil {
		r.logger.Error("Failed to insert daily update", zap.Int64("user_id", u.UserID), zap.Error(err))
		return translateError(err)
	}

	r.logger.Info("Daily update inserted",
		zap.Int64("id", u.ID),
		zap.Int64("user_id", u.UserID),
	)
	return nil
}

func (r *DailyUpdateRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]model.DailyUpdate, error) {
	query := `
        SELECT d.id, d.user_id, d.content, d.created_at, ` + prefixed("u", userColumns) + `
        FROM daily_updates d
        JOIN users u ON u.id = d.user_id
        WHERE d.user_id = $1
        ORDER BY d.created_at DESC, d.id DESC
    `
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query daily updates", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	updates := []model.DailyUpdate{}
	for rows.Next() {
		var d model.DailyUpdate
		var u model.User
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.Content, &d.CreatedAt,
			&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
			&u.DateJoined, &u.IsSuperuser, &u.IsStaff, &u.IsActive,
		); err != nil {
			return nil, err
		}
		d.User = &u
		updates = append(updates, d)
	}
	return updates, rows.Err()
}
