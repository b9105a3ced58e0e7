package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/statetree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractTree() domain.Tree {
	tree := domain.NewTree(map[string]domain.Slot{
		"providers": domain.NewSlot([]any{}),
		"bootstrap": domain.NewSlot(map[string]any{}),
	}, map[string]any{"fetchMetadata": false})

	tree = tree.WithSlot("providers", domain.Slot{
		Data:   []any{map[string]any{"uuid": "p1", "code": "aws"}},
		Status: domain.StatusSuccess,
	})
	return tree.WithSlot("bootstrap", domain.Slot{
		Data:   map[string]any{"type": "region", "response": nil},
		Status: domain.StatusError,
		Error:  &domain.Failure{Message: "boom", Tags: map[string]any{"type": "region"}},
	})
}

// RunTreeStoreContract runs a suite of tests to verify that a TreeStore implementation
// adheres to the defined interface contract.
func RunTreeStoreContract(t *testing.T, store TreeStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		tree := contractTree()

		err := store.Save(ctx, sessionID, tree)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, tree.Revision(), loaded.Revision())
		assert.Equal(t, tree.SlotKeys(), loaded.SlotKeys())

		providers, ok := loaded.Slot("providers")
		require.True(t, ok)
		assert.Equal(t, domain.StatusSuccess, providers.Status)
		assert.Equal(t, []any{map[string]any{"uuid": "p1", "code": "aws"}}, providers.Data)

		bootstrap, _ := loaded.Slot("bootstrap")
		assert.Equal(t, domain.StatusError, bootstrap.Status)
		require.NotNil(t, bootstrap.Error)
		assert.Equal(t, "boom", bootstrap.Error.Message)
		assert.Equal(t, "region", bootstrap.Error.Tag("type"))

		flag, ok := loaded.Flag("fetchMetadata")
		assert.True(t, ok)
		assert.Equal(t, false, flag)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		tree := contractTree().WithFlag("fetchMetadata", true)
		require.NoError(t, store.Save(ctx, sessionID, tree))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		flag, _ := loaded.Flag("fetchMetadata")
		assert.Equal(t, true, flag)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, contractTree())
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, contractTree()))
		require.NoError(t, store.Save(ctx, id2, contractTree()))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
