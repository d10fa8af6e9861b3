package memstore

import (
	"context"
	"sort"

	"teamtracker/internal/model"
	"teamtracker/internal/repository"
)

type DailyUpdateStore struct {
	s *Store
}

func (r *DailyUpdateStore) Create(_ context.Context, u *model.DailyUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[u.UserID]; !ok {
		return repository.ErrNotFound
	}
	u.ID = r.s.nextID()
	u.CreatedAt = r.s.now()
	r.s.updates[u.ID] = *u
	u.User = r.s.userPtr(u.UserID)
	return nil
}

func (r *DailyUpdateStore) ListByUser(_ context.Context, userID int64, limit int) ([]model.DailyUpdate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	updates := []model.DailyUpdate{}
	for _, u := range r.s.updates {
		if u.UserID != userID {
			continue
		}
		u.User = r.s.userPtr(u.UserID)
		updates = append(updates, u)
	}
	sort.Slice(updates, func(i, j int) bool {
		return newestFirst(updates[i].CreatedAt, updates[j].CreatedAt, updates[i].ID, updates[j].ID)
	})
	if limit > 0 && len(updates) > limit {
		updates = updates[:limit]
	}
	return updates, nil
}
