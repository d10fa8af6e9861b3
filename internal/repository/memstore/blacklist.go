package memstore

import (
	"context"
	"sync"
	"time"
)

// TokenBlacklist keeps revoked jtis in memory until their expiry passes.
type TokenBlacklist struct {
	mu      sync.Mutex
	now     func() time.Time
	revoked map[string]time.Time
}

func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{now: time.Now, revoked: map[string]time.Time{}}
}

func (b *TokenBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.sweep(now)
	if _, ok := b.revoked[jti]; ok {
		return false, nil
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	b.revoked[jti] = now.Add(ttl)
	return true, nil
}

func (b *TokenBlacklist) sweep(now time.Time) {
	for jti, exp := range b.revoked {
		if !now.Before(exp) {
			delete(b.revoked, jti)
		}
	}
}
