package statetree_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/statetree"
	"github.com/aretw0/statetree/pkg/adapters/memory"
	"github.com/aretw0/statetree/pkg/catalog"
	"github.com/aretw0/statetree/pkg/catalog/cloud"
	"github.com/aretw0/statetree/pkg/catalog/universe"
	"github.com/aretw0/statetree/pkg/domain"
	"github.com/aretw0/statetree/pkg/observability"
	"github.com/aretw0/statetree/pkg/ports"
	"github.com/aretw0/statetree/pkg/reducer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLocker struct {
	mu    sync.Mutex
	locks map[string]int
}

func (l *countingLocker) Lock(_ context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[string]int)
	}
	l.locks[key]++
	return func(context.Context) error { return nil }, nil
}

func TestNew_Defaults(t *testing.T) {
	engine, err := statetree.New()
	require.NoError(t, err)

	areas := engine.Areas()
	require.Len(t, areas, 2)
	assert.Equal(t, cloud.Name, areas[0].Name)
	assert.Equal(t, universe.Name, areas[1].Name)

	r, err := engine.Reducer(universe.Name)
	require.NoError(t, err)
	assert.Equal(t, universe.Name, r.Area())

	_, err = engine.Sessions("nope")
	assert.ErrorIs(t, err, catalog.ErrAreaNotFound)
	_, err = engine.Initial("nope")
	assert.ErrorIs(t, err, catalog.ErrAreaNotFound)
}

func TestEngine_SessionsShareOneStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	engine, err := statetree.New(statetree.WithStore(store))
	require.NoError(t, err)
	assert.Same(t, store, engine.Store())

	_, created, err := engine.Start(ctx, cloud.Name, "s1")
	require.NoError(t, err)
	assert.True(t, created)
	_, created, err = engine.Start(ctx, cloud.Name, "s1")
	require.NoError(t, err)
	assert.False(t, created)

	_, _, err = engine.Start(ctx, universe.Name, "s1")
	require.NoError(t, err)

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cloud:s1", "universe:s1"}, keys)

	ids, err := engine.List(ctx, cloud.Name)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	require.NoError(t, engine.Delete(ctx, cloud.Name, "s1"))
	_, err = engine.Load(ctx, cloud.Name, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = engine.Load(ctx, universe.Name, "s1")
	assert.NoError(t, err)
}

func TestEngine_ReduceIsPure(t *testing.T) {
	ctx := context.Background()
	engine, err := statetree.New()
	require.NoError(t, err)

	initial, err := engine.Initial(cloud.Name)
	require.NoError(t, err)

	next, err := engine.Reduce(ctx, cloud.Name, initial, domain.NewAction(cloud.GetRegionList, nil))
	require.NoError(t, err)

	before, _ := initial.Slot(cloud.Regions)
	after, _ := next.Slot(cloud.Regions)
	assert.Equal(t, domain.StatusInit, before.Status)
	assert.Equal(t, domain.StatusLoading, after.Status)

	ids, err := engine.List(ctx, cloud.Name)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = engine.Reduce(ctx, "nope", initial)
	assert.ErrorIs(t, err, catalog.ErrAreaNotFound)
}

func TestEngine_DispatchUnknownSession(t *testing.T) {
	engine, err := statetree.New()
	require.NoError(t, err)

	_, err = engine.Dispatch(context.Background(), cloud.Name, "ghost", domain.NewAction(cloud.GetRegionList, nil))
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEngine_Observability(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	var mu sync.Mutex
	var transitions []string
	hooks := domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			mu.Lock()
			defer mu.Unlock()
			transitions = append(transitions, e.Area+"/"+e.Slot+":"+string(e.To))
		},
	}
	locker := &countingLocker{}

	engine, err := statetree.New(
		statetree.WithLifecycleHooks(hooks),
		statetree.WithMetrics(metrics),
		statetree.WithLocker(locker, time.Second),
	)
	require.NoError(t, err)

	_, _, err = engine.Start(ctx, cloud.Name, "s1")
	require.NoError(t, err)
	_, err = engine.Dispatch(ctx, cloud.Name, "s1",
		domain.NewAction(cloud.GetRegionList, nil),
		domain.Respond(cloud.GetRegionListResponse, 500, nil),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"cloud/regions:loading", "cloud/regions:error"}, transitions)
	assert.Equal(t, 2, locker.locks["cloud:s1"])

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["statetree_slot_transitions_total"])
	assert.True(t, names["statetree_slot_failures_total"])
	assert.True(t, names["statetree_dispatches_total"])
}

func TestEngine_CustomRegistry(t *testing.T) {
	reg := catalog.NewRegistry()
	require.NoError(t, reg.Register(catalog.Area{
		Name:   "ping",
		Schema: reducer.Schema{Slots: map[string]any{"pong": nil}},
		Table: func() *reducer.Table {
			t := reducer.NewTable()
			t.On("PING").Begin("pong")
			t.On("PING_RESPONSE").Commit("pong")
			return t
		},
	}))

	engine, err := statetree.New(statetree.WithRegistry(reg))
	require.NoError(t, err)
	require.Len(t, engine.Areas(), 1)

	tree, err := engine.Initial("ping")
	require.NoError(t, err)
	tree, err = engine.Reduce(context.Background(), "ping", tree,
		domain.NewAction("PING", nil),
		domain.Respond("PING_RESPONSE", 204, "ok"),
	)
	require.NoError(t, err)
	slot, _ := tree.Slot("pong")
	assert.Equal(t, domain.StatusSuccess, slot.Status)
	assert.Equal(t, "ok", slot.Data)
}

func TestNew_BrokenArea(t *testing.T) {
	reg := catalog.NewRegistry()
	require.NoError(t, reg.Register(catalog.Area{
		Name:   "broken",
		Schema: reducer.Schema{},
		Table: func() *reducer.Table {
			t := reducer.NewTable()
			t.On("X").Begin("missing")
			return t
		},
	}))

	_, err := statetree.New(statetree.WithRegistry(reg))
	assert.ErrorIs(t, err, reducer.ErrUnknownSlot)
}
