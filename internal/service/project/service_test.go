package project

import (
	"context"
	"errors"
	"sync"
	"testing"

	"teamtracker/internal/apperr"
	"teamtracker/internal/events"
	"teamtracker/internal/model"
	"teamtracker/internal/repository/memstore"
	"teamtracker/pkg/rbac"

	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, eventType)
}

type fixture struct {
	svc   *Service
	store *memstore.Store
	pub   *recordingPublisher
	alice *model.User
	bob   *model.User
	admin *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	pub := &recordingPublisher{}
	f := &fixture{
		svc:   NewService(store.Projects(), store.Users(), pub, zap.NewNop()),
		store: store,
		pub:   pub,
	}
	f.alice = f.user(t, "alice", false)
	f.bob = f.user(t, "bob", false)
	f.admin = f.user(t, "admin", true)
	return f
}

func (f *fixture) user(t *testing.T, name string, superuser bool) *model.User {
	t.Helper()
	u := &model.User{Username: name, Email: name + "@example.com", IsActive: true, IsSuperuser: superuser}
	if err := f.store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func strPtr(s string) *string { return &s }

func TestCreateAndListAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, f.alice.Subject(), Input{Title: strPtr("Website")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.CreatedBy == nil || p.CreatedBy.ID != f.alice.ID || len(p.TeamMembers) != 0 {
		t.Errorf("unexpected project %+v", p)
	}

	if _, err := f.svc.Create(ctx, f.alice.Subject(), Input{Title: strPtr("")}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for blank title, got %v", err)
	}

	// bob is not on any team and still sees everything
	projects, err := f.svc.ListAll(ctx, f.bob.Subject())
	if err != nil || len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d (%v)", len(projects), err)
	}
}

func TestDetailIsSuperuserOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.svc.Create(ctx, f.alice.Subject(), Input{Title: strPtr("Website")})

	// even the creator gets not found
	if _, err := f.svc.Get(ctx, f.alice.Subject(), p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound for creator, got %v", err)
	}
	if _, err := f.svc.Update(ctx, f.bob.Subject(), p.ID, Input{Title: strPtr("x")}, true); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound on update, got %v", err)
	}
	if err := f.svc.Delete(ctx, f.bob.Subject(), p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound on delete, got %v", err)
	}

	got, err := f.svc.Get(ctx, f.admin.Subject(), p.ID)
	if err != nil || got.ID != p.ID {
		t.Fatalf("superuser get: %v", err)
	}

	updated, err := f.svc.Update(ctx, f.admin.Subject(), p.ID, Input{Description: strPtr("new copy")}, true)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if updated.Title != "Website" || updated.Description != "new copy" {
		t.Errorf("unexpected patched project %+v", updated)
	}

	if _, err := f.svc.Update(ctx, f.admin.Subject(), p.ID, Input{Description: strPtr("x")}, false); !apperr.IsValidation(err) {
		t.Errorf("PUT without title should fail validation, got %v", err)
	}

	if err := f.svc.Delete(ctx, f.admin.Subject(), p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.svc.Get(ctx, f.admin.Subject(), p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMembershipRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.svc.Create(ctx, f.alice.Subject(), Input{Title: strPtr("Website")})
	_ = f.svc.AddMember(ctx, f.alice.Subject(), p.ID, f.alice.ID)

	before, _ := f.store.Projects().FindByID(ctx, p.ID)

	// any authenticated user may edit membership
	if err := f.svc.AddMember(ctx, f.bob.Subject(), p.ID, f.bob.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.svc.AddMember(ctx, f.bob.Subject(), p.ID, f.bob.ID); err != nil {
		t.Fatalf("second add: %v", err)
	}
	if err := f.svc.RemoveMember(ctx, f.bob.Subject(), p.ID, f.bob.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	after, _ := f.store.Projects().FindByID(ctx, p.ID)
	if len(after.TeamMembers) != len(before.TeamMembers) || after.TeamMembers[0].ID != f.alice.ID {
		t.Errorf("membership not restored: before %v after %v", before.TeamMembers, after.TeamMembers)
	}

	want := []string{events.ProjectMemberAdded, events.ProjectMemberAdded, events.ProjectMemberAdded, events.ProjectMemberRemoved}
	if len(f.pub.types) != len(want) {
		t.Errorf("unexpected events %v", f.pub.types)
	}
}

func TestMembershipNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.svc.Create(ctx, f.alice.Subject(), Input{Title: strPtr("Website")})

	if err := f.svc.AddMember(ctx, f.alice.Subject(), p.ID, 9999); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
	if err := f.svc.RemoveMember(ctx, f.alice.Subject(), 9999, f.bob.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown project, got %v", err)
	}
	if len(f.pub.types) != 0 {
		t.Errorf("no events expected, got %v", f.pub.types)
	}
}

func TestListAllRequiresIdentity(t *testing.T) {
	f := newFixture(t)
	projects, err := f.svc.ListAll(context.Background(), rbac.Subject{})
	if err != nil || len(projects) != 0 {
		t.Errorf("anonymous subject should see nothing, got %v (%v)", projects, err)
	}
}
