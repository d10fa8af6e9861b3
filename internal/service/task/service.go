package task

import (
	"context"
	"errors"

	"teamtracker/internal/apperr"
	"teamtracker/internal/events"
	"teamtracker/internal/model"
	"teamtracker/internal/repository"
	"teamtracker/pkg/logger"
	"teamtracker/pkg/metrics"
	"teamtracker/pkg/rbac"

	"go.uber.org/zap"
)

const (
	msgAssigneeNotMember = "Assignee must be a member of the project's team."
	msgNotProjectMember  = "You are not a member of this project."
)

type Service struct {
	tasks    repository.TaskStore
	projects repository.ProjectStore
	users    repository.UserStore
	events   events.Publisher
	logger   *zap.Logger
}

func NewService(tasks repository.TaskStore, projects repository.ProjectStore, users repository.UserStore, pub events.Publisher, logger *zap.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		tasks:    tasks,
		projects: projects,
		users:    users,
		events:   pub,
		logger:   logger,
	}
}

// Input carries a create or update request. assignee_id and due_date
// distinguish "absent" from an explicit null.
type Input struct {
	Title       *string                  `json:"title"`
	Description *string                  `json:"description"`
	ProjectID   *model.ID                `json:"project"`
	Status      *string                  `json:"status"`
	AssigneeID  model.Nullable[model.ID] `json:"assignee_id"`
	DueDate     model.Nullable[string]   `json:"due_date"`
}

// List returns tasks of every project the caller is on, optionally narrowed to one project.
func (s *Service) List(ctx context.Context, caller rbac.Subject, projectID *int64) ([]model.Task, error) {
	if err := rbac.CheckPermission(caller, rbac.PermissionManageTasks); err != nil {
		return nil, err
	}
	return s.tasks.ListVisible(ctx, caller.UserID, projectID)
}

func (s *Service) Create(ctx context.Context, caller rbac.Subject, in Input) (*model.Task, error) {
	if err := rbac.CheckPermission(caller, rbac.PermissionManageTasks); err != nil {
		return nil, err
	}

	t := &model.Task{Status: model.StatusTodo}
	if err := s.apply(ctx, t, in, false); err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, t); err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, storeError(err)
	}

	logger.WithTrace(ctx, s.logger).Info("Task created",
		zap.Int64("task_id", t.ID),
		zap.Int64("project_id", t.ProjectID),
		zap.Int64("actor_id", caller.UserID),
	)
	s.events.Publish(ctx, events.TaskCreated, events.TaskCreatedPayload{
		TaskID:     t.ID,
		ProjectID:  t.ProjectID,
		Status:     string(t.Status),
		AssigneeID: t.AssigneeID,
		ActorID:    caller.UserID,
	})
	return t, nil
}

// Get returns the task only when the caller is on its project's team.
func (s *Service) Get(ctx context.Context, caller rbac.Subject, id int64) (*model.Task, error) {
	t, err := s.tasks.FindVisible(ctx, id, caller.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// Update applies in to a visible task. Moving the task to another project
// requires the caller to be on that project's team as well.
func (s *Service) Update(ctx context.Context, caller rbac.Subject, id int64, in Input, partial bool) (*model.Task, error) {
	t, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	prevStatus := t.Status
	prevProject := t.ProjectID

	if err := s.apply(ctx, t, in, partial); err != nil {
		return nil, err
	}

	if t.ProjectID != prevProject {
		member, err := s.projects.IsMember(ctx, t.ProjectID, caller.UserID)
		if err != nil {
			return nil, err
		}
		if !rbac.PolicyTeamMembersOnly.Allows(caller, rbac.Relation{IsTeamMember: member}) {
			return nil, apperr.Field("project", msgNotProjectMember)
		}
	}
	if err := s.checkAssignee(ctx, t); err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, storeError(err)
	}

	log := logger.WithTrace(ctx, s.logger)
	log.Info("Task updated", zap.Int64("task_id", t.ID), zap.Int64("actor_id", caller.UserID))

	if t.Status != prevStatus {
		metrics.IncrementTaskStatusChange(string(prevStatus), string(t.Status))
		log.Info("Task status changed",
			zap.Int64("task_id", t.ID),
			zap.String("from", string(prevStatus)),
			zap.String("to", string(t.Status)),
		)
		s.events.Publish(ctx, events.TaskStatusChanged, events.TaskStatusChangedPayload{
			TaskID:    t.ID,
			ProjectID: t.ProjectID,
			From:      string(prevStatus),
			To:        string(t.Status),
			ActorID:   caller.UserID,
		})
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, caller rbac.Subject, id int64) error {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrNotFound
		}
		return err
	}

	logger.WithTrace(ctx, s.logger).Info("Task deleted",
		zap.Int64("task_id", id),
		zap.Int64("actor_id", caller.UserID),
	)
	return nil
}

// apply validates in and copies it onto t. Without partial, title and project are required.
func (s *Service) apply(ctx context.Context, t *model.Task, in Input, partial bool) error {
	v := apperr.NewValidationError()

	if in.Title != nil || !partial {
		v.CheckRequired("title", in.Title, false, 200)
	}
	if in.Description != nil {
		v.CheckString("description", *in.Description, true, 0)
	}

	projectID := in.ProjectID.Int64Ptr()
	if projectID == nil && !partial {
		v.Add("project", apperr.MsgRequired)
	} else if projectID != nil {
		exists, err := s.projects.Exists(ctx, *projectID)
		if err != nil {
			return err
		}
		if !exists {
			v.Add("project", apperr.InvalidPK(*projectID))
		}
	}

	if in.Status != nil && !model.TaskStatus(*in.Status).Valid() {
		v.Add("status", apperr.InvalidChoice(*in.Status))
	}

	assigneeID := in.AssigneeID.Ptr().Int64Ptr()
	if id := assigneeID; id != nil {
		if _, err := s.users.FindByID(ctx, *id); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			v.Add("assignee_id", apperr.InvalidPK(*id))
		}
	}

	var due *model.Date
	if in.DueDate.Valid {
		d, err := model.ParseDate(in.DueDate.Value)
		if err != nil {
			v.Add("due_date", apperr.MsgInvalidDate)
		}
		due = d
	}

	if err := v.Err(); err != nil {
		return err
	}

	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if projectID != nil {
		t.ProjectID = *projectID
	}
	if in.Status != nil {
		t.Status = model.TaskStatus(*in.Status)
	}
	if in.AssigneeID.Set {
		t.AssigneeID = assigneeID
	}
	if in.DueDate.Set {
		t.DueDate = due
	}
	return nil
}

// checkAssignee rejects an assignee outside the task's project team. The
// repository repeats the check atomically with the write.
func (s *Service) checkAssignee(ctx context.Context, t *model.Task) error {
	if t.AssigneeID == nil {
		return nil
	}
	member, err := s.projects.IsMember(ctx, t.ProjectID, *t.AssigneeID)
	if err != nil {
		return err
	}
	if !member {
		return apperr.Field("assignee_id", msgAssigneeNotMember)
	}
	return nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrAssigneeNotMember):
		return apperr.Field("assignee_id", msgAssigneeNotMember)
	case errors.Is(err, repository.ErrNotFound):
		// project deleted between validation and write
		return apperr.Field("project", "Project no longer exists.")
	default:
		return err
	}
}
