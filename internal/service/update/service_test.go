package update

import (
	"context"
	"strings"
	"testing"

	"teamtracker/internal/apperr"
	"teamtracker/internal/events"
	"teamtracker/internal/model"
	"teamtracker/internal/repository/memstore"
	"teamtracker/pkg/rbac"

	"go.uber.org/zap"
)

type countingPublisher struct {
	n int
}

func (p *countingPublisher) Publish(_ context.Context, eventType string, _ any) {
	if eventType == events.DailyUpdateCreated {
		p.n++
	}
}

func strPtr(s string) *string { return &s }

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	pub := &countingPublisher{}
	svc := NewService(store.DailyUpdates(), pub, zap.NewNop())

	alice := &model.User{Username: "alice", Email: "alice@example.com", IsActive: true}
	bob := &model.User{Username: "bob", Email: "bob@example.com", IsActive: true}
	_ = store.Users().Create(ctx, alice)
	_ = store.Users().Create(ctx, bob)

	long := strings.Repeat("progress ", 5000)
	u, err := svc.Create(ctx, alice.Subject(), Input{Content: strPtr(long)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.User == nil || u.User.ID != alice.ID || u.Content != long {
		t.Errorf("unexpected update %+v", u.User)
	}
	_, _ = svc.Create(ctx, bob.Subject(), Input{Content: strPtr("bob's day")})

	list, err := svc.List(ctx, alice.Subject())
	if err != nil || len(list) != 1 || list[0].ID != u.ID {
		t.Errorf("alice should only see her own update, got %d (%v)", len(list), err)
	}
	if pub.n != 2 {
		t.Errorf("expected 2 events, got %d", pub.n)
	}
}

func TestCreate_RejectsBlank(t *testing.T) {
	svc := NewService(memstore.New().DailyUpdates(), nil, zap.NewNop())

	for _, in := range []Input{{}, {Content: strPtr("")}, {Content: strPtr("   \n")}} {
		_, err := svc.Create(context.Background(), rbac.Subject{UserID: 1}, in)
		if !apperr.IsValidation(err) {
			t.Errorf("expected validation error for %+v, got %v", in, err)
		}
	}
}
