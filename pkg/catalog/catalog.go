// Package catalog names the domain areas a deployment serves. Each area
// pairs a tree schema with the rule table that drives it.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/statetree/pkg/catalog/cloud"
	"github.com/aretw0/statetree/pkg/catalog/universe"
	"github.com/aretw0/statetree/pkg/reducer"
)

var (
	// ErrAreaNotFound is returned when looking up an unregistered area.
	ErrAreaNotFound = errors.New("area not found")

	// ErrAreaExists is returned when registering an area name twice.
	ErrAreaExists = errors.New("area already registered")
)

// Area is one independent state tree.
type Area struct {
	Name        string
	Description string
	Schema      reducer.Schema

	// Table builds the rule table. Tables are builders, so each reducer
	// gets a fresh one.
	Table func() *reducer.Table
}

// Reducer compiles the area into a reducer named after it.
func (a Area) Reducer(opts ...reducer.Option) (*reducer.Reducer, error) {
	if a.Table == nil {
		return nil, fmt.Errorf("area %s has no rule table", a.Name)
	}
	opts = append([]reducer.Option{reducer.WithArea(a.Name)}, opts...)
	r, err := reducer.New(a.Schema, a.Table(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile area %s: %w", a.Name, err)
	}
	return r, nil
}

// Registry manages the available areas.
type Registry struct {
	mu    sync.RWMutex
	areas map[string]Area
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		areas: make(map[string]Area),
	}
}

// Builtin returns a registry holding the cloud and universe areas.
func Builtin() *Registry {
	r := NewRegistry()
	_ = r.Register(Area{
		Name:        cloud.Name,
		Description: "Cloud providers, regions, instance types, access keys and provider bootstrap",
		Schema:      cloud.Schema(),
		Table:       cloud.Table,
	})
	_ = r.Register(Area{
		Name:        universe.Name,
		Description: "Universe lifecycle, tasks, configuration templates, backups and I/O metrics",
		Schema:      universe.Schema(),
		Table:       universe.Table,
	})
	return r
}

// Register adds an area to the registry.
func (r *Registry) Register(a Area) error {
	if a.Name == "" {
		return errors.New("area name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.areas[a.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAreaExists, a.Name)
	}
	r.areas[a.Name] = a
	return nil
}

// Lookup returns the area registered under name.
func (r *Registry) Lookup(name string) (Area, error) {
	r.mu.RLock()
	a, ok := r.areas[name]
	r.mu.RUnlock()

	if !ok {
		return Area{}, fmt.Errorf("%w: %s", ErrAreaNotFound, name)
	}
	return a, nil
}

// Names lists the registered area names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.areas))
	for name := range r.areas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
