package ports

import (
	"context"

	"github.com/aretw0/statetree/pkg/domain"
)

// TreeStore defines the interface for persisting state trees.
// It lets a session survive restarts and be shared between replicas.
type TreeStore interface {
	// Save persists the tree for a given session ID.
	Save(ctx context.Context, sessionID string, tree domain.Tree) error

	// Load retrieves the tree for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (domain.Tree, error)

	// Delete removes the tree for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of the stored sessions.
	List(ctx context.Context) ([]string, error)
}
