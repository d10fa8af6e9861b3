package project

import (
	"context"
	"errors"

	"teamtracker/internal/apperr"
	"teamtracker/internal/events"
	"teamtracker/internal/model"
	"teamtracker/internal/repository"
	"teamtracker/pkg/logger"
	"teamtracker/pkg/rbac"

	"go.uber.org/zap"
)

const (
	listPolicy   = rbac.PolicyVisibleToAllAuthenticated
	detailPolicy = rbac.PolicySuperuserOnly
)

type Service struct {
	projects repository.ProjectStore
	users    repository.UserStore
	events   events.Publisher
	logger   *zap.Logger
}

func NewService(projects repository.ProjectStore, users repository.UserStore, pub events.Publisher, logger *zap.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		projects: projects,
		users:    users,
		events:   pub,
		logger:   logger,
	}
}

type Input struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (in Input) validate(partial bool) error {
	v := apperr.NewValidationError()
	if in.Title != nil || !partial {
		v.CheckRequired("title", in.Title, false, 200)
	}
	if in.Description != nil {
		v.CheckString("description", *in.Description, true, 0)
	}
	return v.Err()
}

// ListAll returns every project to any authenticated caller.
func (s *Service) ListAll(ctx context.Context, caller rbac.Subject) ([]model.Project, error) {
	if err := rbac.CheckPermission(caller, rbac.PermissionListProjects); err != nil {
		return nil, err
	}
	if !listPolicy.Allows(caller, rbac.Relation{}) {
		return []model.Project{}, nil
	}
	return s.projects.List(ctx)
}

// Create makes the caller the project's creator; the team starts empty.
func (s *Service) Create(ctx context.Context, caller rbac.Subject, in Input) (*model.Project, error) {
	if err := rbac.CheckPermission(caller, rbac.PermissionCreateProject); err != nil {
		return nil, err
	}
	if err := in.validate(false); err != nil {
		return nil, err
	}

	p := &model.Project{
		Title:       *in.Title,
		Description: derefString(in.Description),
		CreatedByID: caller.UserID,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, err
	}

	created, err := s.projects.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	logger.WithTrace(ctx, s.logger).Info("Project created",
		zap.Int64("project_id", created.ID),
		zap.Int64("created_by", caller.UserID),
	)
	return created, nil
}

// Get resolves a single project. Callers outside the detail policy see
// apperr.ErrNotFound whether or not the project exists.
func (s *Service) Get(ctx context.Context, caller rbac.Subject, id int64) (*model.Project, error) {
	if !detailPolicy.Allows(caller, rbac.Relation{}) {
		return nil, apperr.ErrNotFound
	}

	p, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Update applies title and description. With partial set, absent fields are kept.
func (s *Service) Update(ctx context.Context, caller rbac.Subject, id int64, in Input, partial bool) (*model.Project, error) {
	p, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(partial); err != nil {
		return nil, err
	}

	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Description != nil {
		p.Description = *in.Description
	}

	if err := s.projects.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	logger.WithTrace(ctx, s.logger).Info("Project updated", zap.Int64("project_id", id))
	return p, nil
}

// Delete removes the project together with its tasks.
func (s *Service) Delete(ctx context.Context, caller rbac.Subject, id int64) error {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrNotFound
		}
		return err
	}

	logger.WithTrace(ctx, s.logger).Info("Project deleted",
		zap.Int64("project_id", id),
		zap.Int64("deleted_by", caller.UserID),
	)
	return nil
}

// AddMember adds userID to the project's team. Adding an existing member
// succeeds without change. Either id not resolving yields apperr.ErrNotFound.
func (s *Service) AddMember(ctx context.Context, caller rbac.Subject, projectID, userID int64) error {
	if err := s.checkMembershipTargets(ctx, caller, projectID, userID); err != nil {
		return err
	}
	if err := s.projects.AddMember(ctx, projectID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrNotFound
		}
		return err
	}

	logger.WithTrace(ctx, s.logger).Info("Team member added",
		zap.Int64("project_id", projectID),
		zap.Int64("user_id", userID),
		zap.Int64("actor_id", caller.UserID),
	)
	s.events.Publish(ctx, events.ProjectMemberAdded, events.MembershipPayload{
		ProjectID: projectID,
		UserID:    userID,
		ActorID:   caller.UserID,
	})
	return nil
}

// RemoveMember is the inverse of AddMember and equally idempotent.
func (s *Service) RemoveMember(ctx context.Context, caller rbac.Subject, projectID, userID int64) error {
	if err := s.checkMembershipTargets(ctx, caller, projectID, userID); err != nil {
		return err
	}
	if err := s.projects.RemoveMember(ctx, projectID, userID); err != nil {
		return err
	}

	logger.WithTrace(ctx, s.logger).Info("Team member removed",
		zap.Int64("project_id", projectID),
		zap.Int64("user_id", userID),
		zap.Int64("actor_id", caller.UserID),
	)
	s.events.Publish(ctx, events.ProjectMemberRemoved, events.MembershipPayload{
		ProjectID: projectID,
		UserID:    userID,
		ActorID:   caller.UserID,
	})
	return nil
}

func (s *Service) checkMembershipTargets(ctx context.Context, caller rbac.Subject, projectID, userID int64) error {
	if err := rbac.CheckPermission(caller, rbac.PermissionEditMembership); err != nil {
		return err
	}

	exists, err := s.projects.Exists(ctx, projectID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.ErrNotFound
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrNotFound
		}
		return err
	}
	return nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
