package memstore

import (
	"context"
	"sort"
	"strings"

	"teamtracker/internal/model"
	"teamtracker/internal/repository"
)

type UserStore struct {
	s *Store
}

func (r *UserStore) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkUnique(u); err != nil {
		return err
	}
	u.ID = r.s.nextID()
	u.DateJoined = r.s.now()
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserStore) checkUnique(u *model.User) error {
	for _, other := range r.s.users {
		if other.ID == u.ID {
			continue
		}
		if other.Username == u.Username {
			return &repository.DuplicateError{Field: "username"}
		}
		if strings.EqualFold(other.Email, u.Email) {
			return &repository.DuplicateError{Field: "email"}
		}
	}
	return nil
}

func (r *UserStore) FindByID(_ context.Context, id int64) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u := r.s.userPtr(id)
	if u == nil {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *UserStore) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserStore) ExistsUsername(_ context.Context, username string, excludeID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.ID != excludeID && u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *UserStore) ExistsEmail(_ context.Context, email string, excludeID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.ID != excludeID && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *UserStore) Update(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.checkUnique(u); err != nil {
		return err
	}

	existing.Username = u.Username
	existing.Email = u.Email
	existing.FirstName = u.FirstName
	existing.LastName = u.LastName
	r.s.users[u.ID] = existing
	return nil
}

func (r *UserStore) List(_ context.Context) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// SetActive flips the account flag that the profile update path never touches.
func (s *Store) SetActive(userID int64, active bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return false
	}
	u.IsActive = active
	s.users[userID] = u
	return true
}
