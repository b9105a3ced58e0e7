package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/statetree/pkg/domain"
)

// Store implements ports.TreeStore in memory.
// Safe for concurrent use.
//
// Trees are immutable values, so they are kept as given; nothing a caller
// does after Save can change what Load returns.
type Store struct {
	data map[string]domain.Tree
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Tree),
	}
}

// Save keeps the tree in memory.
func (s *Store) Save(_ context.Context, sessionID string, tree domain.Tree) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = tree
	return nil
}

// Load retrieves the tree from memory.
func (s *Store) Load(_ context.Context, sessionID string) (domain.Tree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tree, ok := s.data[sessionID]
	if !ok {
		return domain.Tree{}, domain.ErrSessionNotFound
	}
	return tree, nil
}

// Delete removes the tree.
func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns stored sessions in lexical order.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)
	return sessions, nil
}
