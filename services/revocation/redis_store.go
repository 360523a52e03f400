package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the blacklist in redis with per-key TTLs so revoked ids
// expire on their own and survive process restarts.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (r *RedisStore) Add(jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := r.client.Set(context.Background(), r.keyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token in redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Contains(jti string) (bool, error) {
	count, err := r.client.Exists(context.Background(), r.keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist in redis: %w", err)
	}
	return count > 0, nil
}

// CleanupExpired is a no-op: redis evicts keys via TTL.
func (r *RedisStore) CleanupExpired() error {
	return nil
}
