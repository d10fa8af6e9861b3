package directory

import (
	"context"

	"teamtracker/internal/model"
	"teamtracker/internal/repository"
	"teamtracker/pkg/rbac"
)

type Service struct {
	users repository.UserStore
}

func NewService(users repository.UserStore) *Service {
	return &Service{users: users}
}

// ListAll returns every user ordered by id. The directory is visible to any
// authenticated caller.
func (s *Service) ListAll(ctx context.Context, caller rbac.Subject) ([]model.User, error) {
	if err := rbac.CheckPermission(caller, rbac.PermissionListUsers); err != nil {
		return nil, err
	}
	if !rbac.PolicyVisibleToAllAuthenticated.Allows(caller, rbac.Relation{}) {
		return []model.User{}, nil
	}
	return s.users.List(ctx)
}
