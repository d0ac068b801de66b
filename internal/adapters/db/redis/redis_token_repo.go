package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/usiug6/auth-service/internal/domain/auth/repo"
)

const keyPrefix = "auth:revoked:"

type RedisTokenRepo struct {
	client *redis.Client
}

var _ repo.RevocationRepo = (*RedisTokenRepo)(nil)

func NewRedisTokenRepo(client *redis.Client) *RedisTokenRepo {
	return &RedisTokenRepo{
		client: client,
	}
}

// Revoke marks jti as revoked until the token would have expired anyway.
func (r *RedisTokenRepo) Revoke(ctx context.Context, jti string, exp time.Time) error {
	return r.client.Set(ctx, keyPrefix+jti, 1, safeTTL(exp)).Err()
}

func (r *RedisTokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		// fail closed
		return true, err
	}
	return n > 0, nil
}

func (r *RedisTokenRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func safeTTL(exp time.Time) time.Duration {
	ttl := time.Until(exp)
	if ttl <= 0 {
		// already expired tokens fail signature checks; keep the key briefly
		return time.Minute
	}
	return ttl
}
