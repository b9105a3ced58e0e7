// Package middleware decorates a ports.TreeStore with at-rest protection
// for slot data: field masking and envelope encryption.
package middleware

import "github.com/aretw0/statetree/pkg/ports"

// Middleware allows wrapping a TreeStore to add behavior.
type Middleware func(ports.TreeStore) ports.TreeStore

// Chain applies middlewares so that the first one is the outermost.
func Chain(store ports.TreeStore, mws ...Middleware) ports.TreeStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
