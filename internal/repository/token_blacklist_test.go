package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func setupBlacklist(t *testing.T) (*RedisTokenBlacklist, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisTokenBlacklist(client, zap.NewNop()), mr
}

func TestRedisTokenBlacklist_RevokeOnce(t *testing.T) {
	bl, _ := setupBlacklist(t)
	ctx := context.Background()

	ok, err := bl.Revoke(ctx, "abc", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first revoke: ok=%v err=%v", ok, err)
	}

	ok, err = bl.Revoke(ctx, "abc", time.Minute)
	if err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if ok {
		t.Error("expected second revoke to report already revoked")
	}

	ok, err = bl.Revoke(ctx, "other", time.Minute)
	if err != nil || !ok {
		t.Errorf("unrelated jti should revoke independently: ok=%v err=%v", ok, err)
	}
}

func TestRedisTokenBlacklist_Expires(t *testing.T) {
	bl, mr := setupBlacklist(t)
	ctx := context.Background()

	if _, err := bl.Revoke(ctx, "short", 10*time.Second); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ttl := mr.TTL(blacklistKey("short")); ttl != 10*time.Second {
		t.Errorf("expected ttl 10s, got %v", ttl)
	}

	mr.FastForward(11 * time.Second)

	if mr.Exists(blacklistKey("short")) {
		t.Error("expected entry to expire with the token")
	}
}

func TestRedisTokenBlacklist_RedisDown(t *testing.T) {
	bl, mr := setupBlacklist(t)
	mr.Close()

	if _, err := bl.Revoke(context.Background(), "abc", time.Minute); err == nil {
		t.Error("expected error when redis is unavailable")
	}
}
