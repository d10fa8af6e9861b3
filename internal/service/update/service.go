package update

import (
	"context"
	"strings"

	"teamtracker/internal/apperr"
	"teamtracker/internal/events"
	"teamtracker/internal/model"
	"teamtracker/internal/repository"
	"teamtracker/pkg/logger"
	"teamtracker/pkg/rbac"

	"go.uber.org/zap"
)

type Service struct {
	updates repository.DailyUpdateStore
	events  events.Publisher
	logger  *zap.Logger
}

func NewService(updates repository.DailyUpdateStore, pub events.Publisher, logger *zap.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{updates: updates, events: pub, logger: logger}
}

type Input struct {
	Content *string `json:"content"`
}

// List returns the caller's own updates, newest first.
func (s *Service) List(ctx context.Context, caller rbac.Subject) ([]model.DailyUpdate, error) {
	if err := rbac.CheckPermission(caller, rbac.PermissionManageUpdates); err != nil {
		return nil, err
	}
	return s.updates.ListByUser(ctx, caller.UserID, 0)
}

// Create posts an update attributed to the caller. Content has no length cap.
func (s *Service) Create(ctx context.Context, caller rbac.Subject, in Input) (*model.DailyUpdate, error) {
	if err := rbac.CheckPermission(caller, rbac.PermissionManageUpdates); err != nil {
		return nil, err
	}

	v := apperr.NewValidationError()
	if v.CheckRequired("content", in.Content, false, 0) && strings.TrimSpace(*in.Content) == "" {
		v.Add("content", apperr.MsgBlank)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	u := &model.DailyUpdate{UserID: caller.UserID, Content: *in.Content}
	if err := s.updates.Create(ctx, u); err != nil {
		return nil, err
	}
	if u.User == nil {
		u.User = &model.User{ID: caller.UserID}
	}

	logger.WithTrace(ctx, s.logger).Info("Daily update posted",
		zap.Int64("update_id", u.ID),
		zap.Int64("user_id", caller.UserID),
		zap.Int("content_length", len(u.Content)),
	)
	s.events.Publish(ctx, events.DailyUpdateCreated, events.DailyUpdateCreatedPayload{
		UpdateID: u.ID,
		UserID:   caller.UserID,
	})
	return u, nil
}
