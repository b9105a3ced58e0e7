package statetree

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/statetree/internal/logging"
	"github.com/aretw0/statetree/pkg/adapters/memory"
	"github.com/aretw0/statetree/pkg/catalog"
	"github.com/aretw0/statetree/pkg/domain"
	"github.com/aretw0/statetree/pkg/observability"
	"github.com/aretw0/statetree/pkg/ports"
	"github.com/aretw0/statetree/pkg/reducer"
	"github.com/aretw0/statetree/pkg/session"
)

// Version is the release of this module.
const Version = "0.1.0"

// Engine is the high-level entry point for the library.
// It compiles every area of a catalog and serves one session manager per area
// over a shared store.
type Engine struct {
	registry *catalog.Registry
	store    ports.TreeStore
	locker   ports.DistributedLocker
	lockTTL  time.Duration
	hooks    domain.LifecycleHooks
	metrics  *observability.Metrics
	logger   *slog.Logger

	areas    []catalog.Area
	reducers map[string]*reducer.Reducer
	managers map[string]*session.Manager
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRegistry replaces the builtin catalog.
func WithRegistry(r *catalog.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithStore sets the persistence backend (default: in-memory).
func WithStore(s ports.TreeStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker enables distributed session locking.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = l
		e.lockTTL = ttl
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMetrics feeds transitions and dispatches into Prometheus collectors.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New compiles every registered area.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		reducers: make(map[string]*reducer.Reducer),
		managers: make(map[string]*session.Manager),
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.registry == nil {
		eng.registry = catalog.Builtin()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	hooks := eng.hooks
	var sessionOpts []session.Option
	if eng.metrics != nil {
		hooks = domain.CombineHooks(hooks, eng.metrics.Hooks())
		sessionOpts = append(sessionOpts, session.WithDispatchObserver(eng.metrics.ObserveDispatch))
	}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker), session.WithLockTTL(eng.lockTTL))
	}

	for _, name := range eng.registry.Names() {
		area, err := eng.registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		logger := eng.logger.With("area", name)
		r, err := area.Reducer(reducer.WithLifecycleHooks(hooks), reducer.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		eng.areas = append(eng.areas, area)
		eng.reducers[name] = r
		eng.managers[name] = session.NewManager(r, eng.store,
			append([]session.Option{session.WithLogger(logger)}, sessionOpts...)...)
	}

	eng.logger.Debug("Engine ready", "areas", len(eng.areas))
	return eng, nil
}

// Areas returns the served areas in name order.
func (e *Engine) Areas() []catalog.Area {
	out := make([]catalog.Area, len(e.areas))
	copy(out, e.areas)
	return out
}

// Reducer returns the compiled reducer of an area.
func (e *Engine) Reducer(area string) (*reducer.Reducer, error) {
	r, ok := e.reducers[area]
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrAreaNotFound, area)
	}
	return r, nil
}

// Sessions returns the session manager of an area.
func (e *Engine) Sessions(area string) (*session.Manager, error) {
	m, ok := e.managers[area]
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrAreaNotFound, area)
	}
	return m, nil
}

// Store returns the persistence backend shared by all areas.
func (e *Engine) Store() ports.TreeStore {
	return e.store
}

// Initial returns the initial tree of an area.
func (e *Engine) Initial(area string) (domain.Tree, error) {
	r, err := e.Reducer(area)
	if err != nil {
		return domain.Tree{}, err
	}
	return r.Initial(), nil
}

// Reduce applies actions, in order, to a tree without touching the store.
func (e *Engine) Reduce(ctx context.Context, area string, tree domain.Tree, actions ...domain.Action) (domain.Tree, error) {
	r, err := e.Reducer(area)
	if err != nil {
		return domain.Tree{}, err
	}
	for _, a := range actions {
		tree = r.ReduceContext(ctx, tree, a)
	}
	return tree, nil
}

// Start loads a session, creating it with the initial tree when missing.
// The second result reports whether the session was created.
func (e *Engine) Start(ctx context.Context, area, sessionID string) (domain.Tree, bool, error) {
	m, err := e.Sessions(area)
	if err != nil {
		return domain.Tree{}, false, err
	}
	return m.LoadOrInit(ctx, sessionID)
}

// Dispatch applies actions to a stored session.
func (e *Engine) Dispatch(ctx context.Context, area, sessionID string, actions ...domain.Action) (session.Result, error) {
	m, err := e.Sessions(area)
	if err != nil {
		return session.Result{}, err
	}
	return m.Dispatch(ctx, sessionID, actions...)
}

// Load returns the stored tree of a session.
func (e *Engine) Load(ctx context.Context, area, sessionID string) (domain.Tree, error) {
	m, err := e.Sessions(area)
	if err != nil {
		return domain.Tree{}, err
	}
	return m.Load(ctx, sessionID)
}

// Delete removes a session.
func (e *Engine) Delete(ctx context.Context, area, sessionID string) error {
	m, err := e.Sessions(area)
	if err != nil {
		return err
	}
	return m.Delete(ctx, sessionID)
}

// List returns the session IDs of an area.
func (e *Engine) List(ctx context.Context, area string) ([]string, error) {
	m, err := e.Sessions(area)
	if err != nil {
		return nil, err
	}
	return m.List(ctx)
}
