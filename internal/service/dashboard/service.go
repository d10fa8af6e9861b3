package dashboard

import (
	"context"

	"teamtracker/internal/model"
	"teamtracker/internal/repository"
	"teamtracker/pkg/rbac"

	"go.uber.org/zap"
)

// RecentLimit caps both recent lists on the dashboard.
const RecentLimit = 5

type Service struct {
	projects repository.ProjectStore
	tasks    repository.TaskStore
	updates  repository.DailyUpdateStore
	logger   *zap.Logger
}

func NewService(projects repository.ProjectStore, tasks repository.TaskStore, updates repository.DailyUpdateStore, logger *zap.Logger) *Service {
	return &Service{
		projects: projects,
		tasks:    tasks,
		updates:  updates,
		logger:   logger,
	}
}

// Get aggregates system-wide counts, the caller's latest updates and the
// latest tasks across all projects.
func (s *Service) Get(ctx context.Context, caller rbac.Subject) (*model.Dashboard, error) {
	total, err := s.projects.Count(ctx)
	if err != nil {
		s.logger.Error("Dashboard: failed to count projects", zap.Error(err))
		return nil, err
	}

	counts, err := s.tasks.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Dashboard: failed to count tasks", zap.Error(err))
		return nil, err
	}

	updates, err := s.updates.ListByUser(ctx, caller.UserID, RecentLimit)
	if err != nil {
		return nil, err
	}

	recent, err := s.tasks.ListRecent(ctx, RecentLimit)
	if err != nil {
		return nil, err
	}

	return &model.Dashboard{
		Projects:      model.ProjectCounts{Total: total},
		Tasks:         counts,
		RecentUpdates: updates,
		RecentTasks:   recent,
	}, nil
}
