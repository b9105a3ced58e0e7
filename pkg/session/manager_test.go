package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/statetree/pkg/adapters/memory"
	"github.com/aretw0/statetree/pkg/domain"
	"github.com/aretw0/statetree/pkg/merge"
	"github.com/aretw0/statetree/pkg/ports"
	"github.com/aretw0/statetree/pkg/reducer"
	"github.com/aretw0/statetree/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
	saves int
	mu    sync.Mutex
}

func NewSlowStore() *SlowStore {
	return &SlowStore{Store: memory.NewStore()}
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, tree domain.Tree) error {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return s.Store.Save(ctx, sessionID, tree)
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (domain.Tree, error) {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Load(ctx, sessionID)
}

func (s *SlowStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func newReducer(t *testing.T) *reducer.Reducer {
	t.Helper()
	table := reducer.NewTable()
	table.On("LIST_KEYS").Begin("keys")
	table.On("LIST_KEYS_RESPONSE").Commit("keys").Merge(merge.AppendDedup("id"))
	table.On("NOOP").Ignore()
	r, err := reducer.New(reducer.Schema{Slots: map[string]any{"keys": []any{}}}, table, reducer.WithArea("test"))
	require.NoError(t, err)
	return r
}

func TestManager_DispatchSerializesWrites(t *testing.T) {
	store := NewSlowStore()
	manager := session.NewManager(newReducer(t), store)
	ctx := context.Background()
	id := "race-test"

	_, _, err := manager.LoadOrInit(ctx, id)
	require.NoError(t, err)

	var wg sync.WaitGroup
	const writers = 10
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := manager.Dispatch(ctx, id,
				domain.Respond("LIST_KEYS_RESPONSE", 200, []any{map[string]any{"id": n}}),
			)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// A lost update would drop records.
	tree, err := manager.Load(ctx, id)
	require.NoError(t, err)
	s, _ := tree.Slot("keys")
	assert.Len(t, s.Data, writers)
}

func TestManager_LoadOrInit(t *testing.T) {
	store := NewSlowStore()
	manager := session.NewManager(newReducer(t), store)
	ctx := context.Background()
	id := "atomic-init"

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := manager.LoadOrInit(ctx, id)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	tree, err := manager.Load(ctx, id)
	require.NoError(t, err)
	s, _ := tree.Slot("keys")
	assert.Equal(t, domain.StatusInit, s.Status)
}

func TestManager_Dispatch(t *testing.T) {
	store := NewSlowStore()
	var observed []int
	manager := session.NewManager(newReducer(t), store,
		session.WithDispatchObserver(func(_ context.Context, area string, actions int, _ time.Duration, _ error) {
			assert.Equal(t, "test", area)
			observed = append(observed, actions)
		}),
	)
	ctx := context.Background()

	_, err := manager.Dispatch(ctx, "missing", domain.NewAction("LIST_KEYS", nil))
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, _, err = manager.LoadOrInit(ctx, "s1")
	require.NoError(t, err)
	savesBefore := store.Saves()

	res, err := manager.Dispatch(ctx, "s1",
		domain.NewAction("LIST_KEYS", nil),
		domain.Respond("LIST_KEYS_RESPONSE", 200, []any{map[string]any{"id": "a"}}),
	)
	require.NoError(t, err)
	before, _ := res.Previous.Slot("keys")
	after, _ := res.Tree.Slot("keys")
	assert.Equal(t, domain.StatusInit, before.Status)
	assert.Equal(t, domain.StatusSuccess, after.Status)
	require.NotNil(t, res.Diff)
	assert.Contains(t, res.Diff.Slots, "keys")
	assert.Equal(t, savesBefore+1, store.Saves())

	t.Run("Ignored Actions Skip The Write", func(t *testing.T) {
		res, err := manager.Dispatch(ctx, "s1", domain.NewAction("NOOP", nil), domain.NewAction("UNKNOWN", nil))
		require.NoError(t, err)
		assert.Nil(t, res.Diff)
		assert.Equal(t, savesBefore+1, store.Saves())
	})

	assert.Equal(t, []int{1, 2, 2}, observed)
}

func TestManager_ResetDeleteList(t *testing.T) {
	store := memory.NewStore()
	manager := session.NewManager(newReducer(t), store)
	other := session.NewManager(newReducer(t), store, session.WithNamespace("other"))
	ctx := context.Background()

	_, _, err := manager.LoadOrInit(ctx, "a")
	require.NoError(t, err)
	_, _, err = manager.LoadOrInit(ctx, "b")
	require.NoError(t, err)
	_, _, err = other.LoadOrInit(ctx, "c")
	require.NoError(t, err)

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	raw, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"other:c", "test:a", "test:b"}, raw)

	_, err = manager.Dispatch(ctx, "a", domain.Respond("LIST_KEYS_RESPONSE", 200, []any{map[string]any{"id": 1}}))
	require.NoError(t, err)
	tree, err := manager.Reset(ctx, "a")
	require.NoError(t, err)
	s, _ := tree.Slot("keys")
	assert.Equal(t, []any{}, s.Data)

	_, err = manager.Reset(ctx, "zzz")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, manager.Delete(ctx, "a"))
	_, err = manager.Load(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = manager.Load(ctx, "")
	assert.ErrorIs(t, err, domain.ErrEmptySessionID)
}

type recordingLocker struct {
	mu       sync.Mutex
	keys     []string
	ttl      time.Duration
	released int
	fail     bool
}

func (l *recordingLocker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.fail {
		return nil, errors.New("redis down")
	}
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.ttl = ttl
	l.mu.Unlock()
	return func(context.Context) error {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(newReducer(t), memory.NewStore(),
		session.WithLocker(locker),
		session.WithLockTTL(5*time.Second),
	)
	ctx := context.Background()

	_, _, err := manager.LoadOrInit(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, []string{"test:s1"}, locker.keys)
	assert.Equal(t, 5*time.Second, locker.ttl)
	assert.Equal(t, 1, locker.released)

	locker.fail = true
	_, err = manager.Load(ctx, "s1")
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
}

func TestManager_DistinctSessionsRunInParallel(t *testing.T) {
	store := NewSlowStore()
	manager := session.NewManager(newReducer(t), store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", n)
			_, _, err := manager.LoadOrInit(ctx, id)
			assert.NoError(t, err)
			_, err = manager.Dispatch(ctx, id, domain.NewAction("LIST_KEYS", nil))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 4)
}
