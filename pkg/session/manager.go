package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/statetree/internal/logging"
	"github.com/aretw0/statetree/pkg/domain"
	"github.com/aretw0/statetree/pkg/ports"
	"github.com/aretw0/statetree/pkg/reducer"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// DispatchObserver is told about every Dispatch call.
type DispatchObserver func(ctx context.Context, area string, actions int, elapsed time.Duration, err error)

// Result is the outcome of a Dispatch.
type Result struct {
	// Previous is the tree before the first action.
	Previous domain.Tree
	// Tree is the tree after the last action.
	Tree domain.Tree
	// Diff lists what changed; nil when nothing did.
	Diff *domain.TreeDiff
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	reducer   *reducer.Reducer
	store     ports.TreeStore
	namespace string

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker   ports.DistributedLocker
	lockTTL  time.Duration
	observer DispatchObserver
	logger   *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithNamespace prefixes store keys, so several areas can share a store.
// It defaults to the reducer's area name; an empty namespace disables the
// prefix.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		m.namespace = ns
	}
}

// WithDispatchObserver registers a callback run after every Dispatch.
func WithDispatchObserver(fn DispatchObserver) Option {
	return func(m *Manager) {
		m.observer = fn
	}
}

// NewManager creates a Session Manager for the trees of one reducer.
func NewManager(r *reducer.Reducer, store ports.TreeStore, opts ...Option) *Manager {
	m := &Manager{
		reducer:   r,
		store:     store,
		namespace: r.Area(),
		locks:     make(map[string]*lockEntry),
		lockTTL:   DefaultLockTTL,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reducer returns the reducer applied by Dispatch.
func (m *Manager) Reducer() *reducer.Reducer { return m.reducer }

// Store returns the underlying tree store.
func (m *Manager) Store() ports.TreeStore { return m.store }

func (m *Manager) key(sessionID string) string {
	if m.namespace == "" {
		return sessionID
	}
	return m.namespace + ":" + sessionID
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// Load retrieves an existing session.
func (m *Manager) Load(ctx context.Context, sessionID string) (domain.Tree, error) {
	var tree domain.Tree
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		tree, err = m.store.Load(ctx, m.key(sessionID))
		return err
	})
	return tree, err
}

// LoadOrInit loads a session, creating it with the initial tree when it
// does not exist. The second result reports whether it was created.
func (m *Manager) LoadOrInit(ctx context.Context, sessionID string) (domain.Tree, bool, error) {
	var (
		tree    domain.Tree
		created bool
	)
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		tree, err = m.store.Load(ctx, m.key(sessionID))
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		tree = m.reducer.Initial()
		if err := m.store.Save(ctx, m.key(sessionID), tree); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		created = true
		m.logger.Debug("Session initialized", "session_id", sessionID, "area", m.reducer.Area())
		return nil
	})
	return tree, created, err
}

// Dispatch applies actions, in order, to the tree of an existing session
// and persists the result. The whole batch runs under the session lock.
// Nothing is written when no action changed the tree.
func (m *Manager) Dispatch(ctx context.Context, sessionID string, actions ...domain.Action) (Result, error) {
	start := time.Now()
	var res Result
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		prev, err := m.store.Load(ctx, m.key(sessionID))
		if err != nil {
			return err
		}

		next := prev
		for _, action := range actions {
			next = m.reducer.ReduceContext(ctx, next, action)
		}
		res = Result{Previous: prev, Tree: next, Diff: domain.Diff(prev, next)}
		if next.Revision() == prev.Revision() {
			return nil
		}
		if err := m.store.Save(ctx, m.key(sessionID), next); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})

	if m.observer != nil {
		m.observer(ctx, m.reducer.Area(), len(actions), time.Since(start), err)
	}
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// Reset returns an existing session to the initial tree.
func (m *Manager) Reset(ctx context.Context, sessionID string) (domain.Tree, error) {
	tree := m.reducer.Initial()
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if _, err := m.store.Load(ctx, m.key(sessionID)); err != nil {
			return err
		}
		return m.store.Save(ctx, m.key(sessionID), tree)
	})
	if err != nil {
		return domain.Tree{}, err
	}
	return tree, nil
}

// Save persists a tree for a session.
func (m *Manager) Save(ctx context.Context, sessionID string, tree domain.Tree) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, m.key(sessionID), tree)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, m.key(sessionID))
	})
}

// List returns the IDs of the sessions in this manager's namespace.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	keys, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if m.namespace == "" {
		return keys, nil
	}
	prefix := m.namespace + ":"
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if id, ok := strings.CutPrefix(k, prefix); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	if sessionID == "" {
		return domain.ErrEmptySessionID
	}
	key := m.key(sessionID)

	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// Released with a fresh context so a cancelled request still frees the lock.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
