package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/statetree/pkg/adapters/redis"
	"github.com/aretw0/statetree/pkg/domain"
	"github.com/aretw0/statetree/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)

	store := redis.NewFromClient(client)
	ports.RunTreeStoreContract(t, store)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	ctx := context.Background()

	store := redis.NewFromClient(client, redis.WithPrefix("test:"))
	require.NoError(t, store.Save(ctx, "s1", domain.NewTree(nil, nil)))

	assert.True(t, mr.Exists("test:session:s1"))
	assert.True(t, mr.Exists("test:index"))
	assert.NoError(t, store.Ping(ctx))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	ctx := context.Background()

	clock := time.Unix(1_700_000_000, 0)
	store := redis.NewFromClient(client,
		redis.WithTTL(time.Second),
		redis.WithClock(func() time.Time { return clock }),
	)
	sessionID := "session-ttl"
	tree := domain.NewTree(map[string]domain.Slot{"providers": domain.NewSlot([]any{})}, nil)

	require.NoError(t, store.Save(ctx, sessionID, tree))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, sessions, sessionID)

	// Key expiry is handled by redis itself.
	mr.FastForward(2 * time.Second)
	_, err = store.Load(ctx, sessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// The index is pruned lazily on the next List.
	clock = clock.Add(2 * time.Second)
	sessions, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client)
	require.NoError(t, mr.Set(redis.DefaultPrefix+"session:bad", "{not json"))

	_, err := store.Load(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}
