package memstore

import (
	"context"
	"sort"

	"teamtracker/internal/model"
	"teamtracker/internal/repository"
)

type TaskStore struct {
	s *Store
}

// checkRefs must be called with the write lock held.
func (r *TaskStore) checkRefs(t *model.Task) error {
	if _, ok := r.s.projects[t.ProjectID]; !ok {
		return repository.ErrNotFound
	}
	if t.AssigneeID != nil && !r.s.isMember(t.ProjectID, *t.AssigneeID) {
		return repository.ErrAssigneeNotMember
	}
	return nil
}

func (r *TaskStore) Create(_ context.Context, t *model.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkRefs(t); err != nil {
		return err
	}
	if t.Status == "" {
		t.Status = model.StatusTodo
	}

	t.ID = r.s.nextID()
	t.CreatedAt = r.s.now()
	t.UpdatedAt = t.CreatedAt
	r.s.tasks[t.ID] = *t
	*t = r.s.hydrateTask(*t)
	return nil
}

func (r *TaskStore) Update(_ context.Context, t *model.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.tasks[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.checkRefs(t); err != nil {
		return err
	}

	existing.Title = t.Title
	existing.Description = t.Description
	existing.ProjectID = t.ProjectID
	existing.Status = t.Status
	existing.AssigneeID = t.AssigneeID
	existing.DueDate = t.DueDate
	existing.UpdatedAt = r.s.now()
	r.s.tasks[t.ID] = existing

	*t = r.s.hydrateTask(existing)
	return nil
}

func (r *TaskStore) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

func (r *TaskStore) FindVisible(_ context.Context, id, userID int64) (*model.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok || !r.s.isMember(t.ProjectID, userID) {
		return nil, repository.ErrNotFound
	}
	t = r.s.hydrateTask(t)
	return &t, nil
}

func (r *TaskStore) ListVisible(_ context.Context, userID int64, projectID *int64) ([]model.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.collect(0, func(t model.Task) bool {
		if projectID != nil && t.ProjectID != *projectID {
			return false
		}
		return r.s.isMember(t.ProjectID, userID)
	}), nil
}

func (r *TaskStore) ListRecent(_ context.Context, limit int) ([]model.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.collect(limit, func(model.Task) bool { return true }), nil
}

func (r *TaskStore) collect(limit int, keep func(model.Task) bool) []model.Task {
	tasks := []model.Task{}
	for _, t := range r.s.tasks {
		if keep(t) {
			tasks = append(tasks, r.s.hydrateTask(t))
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return newestFirst(tasks[i].CreatedAt, tasks[j].CreatedAt, tasks[i].ID, tasks[j].ID)
	})
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return tasks
}

func (r *TaskStore) CountByStatus(_ context.Context) (model.TaskCounts, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var counts model.TaskCounts
	for _, t := range r.s.tasks {
		counts.Add(t.Status, 1)
	}
	return counts, nil
}
