// Package cache implementa la caché de tokens revocados sobre Redis.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/gestion-api/internal/application/auth"
	"github.com/jhoicas/gestion-api/pkg/config"
)

var _ auth.SessionCache = (*RedisSessionCache)(nil)

const keyPrefix = "revoked:"

// RedisSessionCache marca en Redis los tokens cerrados, con TTL.
type RedisSessionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisClient crea el cliente y verifica la conexión.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// NewRedisSessionCache construye la caché. ttl <= 0 deja las marcas sin expiración.
func NewRedisSessionCache(rdb *redis.Client, ttl time.Duration) *RedisSessionCache {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisSessionCache{rdb: rdb, ttl: ttl}
}

// IsRevoked informa si el token tiene marca de revocado.
func (c *RedisSessionCache) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.rdb.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkRevoked deja la marca del token cerrado.
func (c *RedisSessionCache) MarkRevoked(ctx context.Context, tokenID string) error {
	return c.rdb.Set(ctx, revokedKey(tokenID), "1", c.ttl).Err()
}

func revokedKey(tokenID string) string {
	return keyPrefix + tokenID
}
