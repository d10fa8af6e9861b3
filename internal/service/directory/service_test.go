package directory

import (
	"context"
	"testing"

	"teamtracker/internal/model"
	"teamtracker/internal/repository/memstore"
	"teamtracker/pkg/rbac"
)

func TestListAll(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	for _, name := range []string{"carol", "alice", "bob"} {
		_ = store.Users().Create(ctx, &model.User{Username: name, Email: name + "@example.com", IsActive: true})
	}

	svc := NewService(store.Users())
	users, err := svc.ListAll(ctx, rbac.Subject{UserID: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected every user, got %d", len(users))
	}
	for i := 1; i < len(users); i++ {
		if users[i-1].ID > users[i].ID {
			t.Error("expected users ordered by id")
		}
	}
}
