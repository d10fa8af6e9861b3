package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const blacklistKeyPrefix = "token:blacklist:"

// RedisTokenBlacklist stores revoked refresh token ids until they would have expired anyway.
type RedisTokenBlacklist struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisTokenBlacklist(rdb *redis.Client, logger *zap.Logger) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{rdb: rdb, logger: logger}
}

func blacklistKey(jti string) string {
	return blacklistKeyPrefix + jti
}

// Revoke returns true only for the first caller to revoke jti. Unlike event
// dedup, a Redis failure is returned so that logout and refresh fail closed.
func (b *RedisTokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Second
	}

	ok, err := b.rdb.SetNX(ctx, blacklistKey(jti), 1, ttl).Result()
	if err != nil {
		b.logger.Error("Failed to blacklist token", zap.String("jti", jti), zap.Error(err))
		return false, fmt.Errorf("blacklist token: %w", err)
	}

	if !ok {
		b.logger.Info("Token already blacklisted", zap.String("jti", jti))
	}
	return ok, nil
}
