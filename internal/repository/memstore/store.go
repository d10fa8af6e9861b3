// Package memstore is an in-memory implementation of the repository stores.
// It backs the "memory" storage driver and the service and router tests.
package memstore

import (
	"sort"
	"sync"
	"time"

	"teamtracker/internal/model"
	"teamtracker/internal/repository"
)

var (
	_ repository.UserStore        = (*UserStore)(nil)
	_ repository.ProjectStore     = (*ProjectStore)(nil)
	_ repository.TaskStore        = (*TaskStore)(nil)
	_ repository.DailyUpdateStore = (*DailyUpdateStore)(nil)
	_ repository.TokenBlacklist   = (*TokenBlacklist)(nil)
)

// Store holds every table behind one lock so cross-table rules (membership
// checks, cascades) see a consistent snapshot.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	seq      int64
	users    map[int64]model.User
	projects map[int64]model.Project
	members  map[int64]map[int64]struct{}
	tasks    map[int64]model.Task
	updates  map[int64]model.DailyUpdate
}

func New() *Store {
	return &Store{
		now:      time.Now,
		users:    map[int64]model.User{},
		projects: map[int64]model.Project{},
		members:  map[int64]map[int64]struct{}{},
		tasks:    map[int64]model.Task{},
		updates:  map[int64]model.DailyUpdate{},
	}
}

// SetClock replaces the time source used for created_at and updated_at.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Users() *UserStore               { return &UserStore{s: s} }
func (s *Store) Projects() *ProjectStore         { return &ProjectStore{s: s} }
func (s *Store) Tasks() *TaskStore               { return &TaskStore{s: s} }
func (s *Store) DailyUpdates() *DailyUpdateStore { return &DailyUpdateStore{s: s} }

// nextID must be called with mu held.
func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *Store) isMember(projectID, userID int64) bool {
	_, ok := s.members[projectID][userID]
	return ok
}

func (s *Store) userPtr(id int64) *model.User {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	return &u
}

func (s *Store) hydrateProject(p model.Project) model.Project {
	p.CreatedBy = s.userPtr(p.CreatedByID)
	p.TeamMembers = []model.User{}
	for id := range s.members[p.ID] {
		if u, ok := s.users[id]; ok {
			p.TeamMembers = append(p.TeamMembers, u)
		}
	}
	sort.Slice(p.TeamMembers, func(i, j int) bool { return p.TeamMembers[i].ID < p.TeamMembers[j].ID })
	return p
}

func (s *Store) hydrateTask(t model.Task) model.Task {
	t.ProjectTitle = s.projects[t.ProjectID].Title
	t.Assignee = nil
	if t.AssigneeID != nil {
		t.Assignee = s.userPtr(*t.AssigneeID)
	}
	return t
}

// newestFirst orders by created_at DESC, id DESC.
func newestFirst(aTime, bTime time.Time, aID, bID int64) bool {
	if !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}
	return aID > bID
}
