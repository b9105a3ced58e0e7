package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/statetree"
	"github.com/aretw0/statetree/internal/adapters/file"
	"github.com/aretw0/statetree/internal/config"
	"github.com/aretw0/statetree/pkg/adapters/memory"
	"github.com/aretw0/statetree/pkg/adapters/redis"
	"github.com/aretw0/statetree/pkg/persistence/middleware"
	"github.com/aretw0/statetree/pkg/ports"
)

// Backend is the assembled persistence layer.
type Backend struct {
	Store  ports.TreeStore
	Locker ports.DistributedLocker

	closers []func() error
	pingers []func(context.Context) error
}

// Ping checks that remote backends are reachable.
func (b *Backend) Ping(ctx context.Context) error {
	for _, p := range b.pingers {
		if err := p(ctx); err != nil {
			return fmt.Errorf("store unreachable: %w", err)
		}
	}
	return nil
}

// Close releases backend connections.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// newBackend builds the configured store, wrapped with masking and
// encryption when the security section asks for them.
func newBackend(cfg config.Config, logger *slog.Logger) (*Backend, error) {
	b := &Backend{}

	switch cfg.Store.Backend {
	case config.BackendFile:
		b.Store = file.New(cfg.Store.Path)
	case config.BackendRedis:
		r := cfg.Store.Redis
		rs := redis.New(r.Address, r.Password, r.DB, redis.WithPrefix(r.Prefix), redis.WithTTL(r.TTL))
		b.Store = rs
		b.Locker = redis.NewLocker(rs.Client(), r.Prefix)
		b.closers = append(b.closers, rs.Close)
		b.pingers = append(b.pingers, rs.Ping)
	default:
		b.Store = memory.NewStore()
	}

	var mws []middleware.Middleware
	if len(cfg.Security.MaskFields) > 0 {
		mw, err := middleware.NewMaskingMiddleware(cfg.Security.MaskFields)
		if err != nil {
			return nil, fmt.Errorf("failed to configure masking: %w", err)
		}
		mws = append(mws, mw)
	}
	active, fallback, err := cfg.Security.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure encryption: %w", err)
		}
		mws = append(mws, mw)
	}
	b.Store = middleware.Chain(b.Store, mws...)

	logger.Debug("Store ready",
		"backend", cfg.Store.Backend,
		"masked_fields", len(cfg.Security.MaskFields),
		"encrypted", active != nil,
		"distributed_lock", b.Locker != nil)
	return b, nil
}

// createEngine initializes an engine over the configured backend with
// standard CLI conventions.
func createEngine(cfg config.Config, logger *slog.Logger, extra ...statetree.Option) (*statetree.Engine, *Backend, error) {
	backend, err := newBackend(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	opts := []statetree.Option{
		statetree.WithLogger(logger),
		statetree.WithStore(backend.Store),
	}
	if backend.Locker != nil {
		opts = append(opts, statetree.WithLocker(backend.Locker, cfg.Session.LockTTL))
	}
	opts = append(opts, extra...)

	engine, err := statetree.New(opts...)
	if err != nil {
		_ = backend.Close()
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, backend, nil
}
