package memstore

import (
	"context"
	"sort"

	"teamtracker/internal/model"
	"teamtracker/internal/repository"
)

type ProjectStore struct {
	s *Store
}

func (r *ProjectStore) Create(_ context.Context, p *model.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[p.CreatedByID]; !ok {
		return repository.ErrNotFound
	}

	p.ID = r.s.nextID()
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	r.s.projects[p.ID] = *p
	*p = r.s.hydrateProject(*p)
	return nil
}

func (r *ProjectStore) FindByID(_ context.Context, id int64) (*model.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p = r.s.hydrateProject(p)
	return &p, nil
}

func (r *ProjectStore) List(_ context.Context) ([]model.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	projects := make([]model.Project, 0, len(r.s.projects))
	for _, p := range r.s.projects {
		projects = append(projects, r.s.hydrateProject(p))
	}
	sort.Slice(projects, func(i, j int) bool {
		return newestFirst(projects[i].CreatedAt, projects[j].CreatedAt, projects[i].ID, projects[j].ID)
	})
	return projects, nil
}

func (r *ProjectStore) Update(_ context.Context, p *model.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.projects[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Title = p.Title
	existing.Description = p.Description
	existing.UpdatedAt = r.s.now()
	r.s.projects[p.ID] = existing

	p.UpdatedAt = existing.UpdatedAt
	return nil
}

// Delete cascades to the project's tasks and memberships.
func (r *ProjectStore) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.projects, id)
	delete(r.s.members, id)
	for tid, t := range r.s.tasks {
		if t.ProjectID == id {
			delete(r.s.tasks, tid)
		}
	}
	return nil
}

func (r *ProjectStore) Exists(_ context.Context, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.projects[id]
	return ok, nil
}

func (r *ProjectStore) AddMember(_ context.Context, projectID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[projectID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.s.users[userID]; !ok {
		return repository.ErrNotFound
	}

	set, ok := r.s.members[projectID]
	if !ok {
		set = map[int64]struct{}{}
		r.s.members[projectID] = set
	}
	set[userID] = struct{}{}
	return nil
}

func (r *ProjectStore) RemoveMember(_ context.Context, projectID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.members[projectID], userID)
	return nil
}

func (r *ProjectStore) IsMember(_ context.Context, projectID, userID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.isMember(projectID, userID), nil
}

func (r *ProjectStore) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return int64(len(r.s.projects)), nil
}
