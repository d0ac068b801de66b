package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*RedisTokenRepo, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redisv9.NewClient(&redisv9.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisTokenRepo(client), mr
}

func TestRedisTokenRepo_RevokeAndIsRevoked(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Revoke(ctx, "jti2", time.Now().Add(time.Minute)))

	revoked, err := repo.IsRevoked(ctx, "jti2")
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestRedisTokenRepo_IsRevoked_KeyAbsent(t *testing.T) {
	repo, _ := newRepo(t)

	revoked, err := repo.IsRevoked(context.Background(), "absent-jti")
	require.NoError(t, err)
	require.False(t, revoked, "absent key must be considered NOT revoked")
}

func TestRedisTokenRepo_RevokeIsIdempotent(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	require.NoError(t, repo.Revoke(ctx, "dup", exp))
	require.NoError(t, repo.Revoke(ctx, "dup", exp))

	revoked, err := repo.IsRevoked(ctx, "dup")
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestRedisTokenRepo_EntryExpiresWithToken(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Revoke(ctx, "short", time.Now().Add(30*time.Second)))
	require.True(t, mr.Exists(keyPrefix+"short"))
	require.Greater(t, mr.TTL(keyPrefix+"short"), time.Duration(0))

	mr.FastForward(31 * time.Second)

	revoked, err := repo.IsRevoked(ctx, "short")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRedisTokenRepo_FailsClosed(t *testing.T) {
	repo, mr := newRepo(t)
	mr.Close()

	revoked, err := repo.IsRevoked(context.Background(), "any")
	require.Error(t, err)
	require.True(t, revoked)
	require.Error(t, repo.Ping(context.Background()))
}
