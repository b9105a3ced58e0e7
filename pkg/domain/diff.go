package domain

import (
	"reflect"
)

// TreeDiff represents the changes between two trees.
// It is designed to be serialized to JSON for partial updates on the client.
type TreeDiff struct {
	// Revision is the revision of the newer tree.
	Revision uint64 `json:"revision"`

	// Slots contains only changed or added slots. Slots are never removed
	// from a tree, so there is no deletion marker.
	Slots map[string]Slot `json:"slots,omitempty"`

	// Flags contains changed, added or deleted flags.
	// For deletions, the key is present with a nil value.
	Flags map[string]any `json:"flags,omitempty"`
}

// Diff calculates the difference between two trees.
// It returns nil when nothing changed.
func Diff(oldTree, newTree Tree) *TreeDiff {
	diff := &TreeDiff{
		Revision: newTree.revision,
		Slots:    diffSlots(oldTree, newTree),
		Flags:    diffFlags(oldTree, newTree),
	}
	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffSlots(old, new Tree) map[string]Slot {
	delta := make(map[string]Slot)
	for k, newSlot := range new.slots {
		oldSlot, exists := old.slots[k]
		if !exists || !reflect.DeepEqual(oldSlot, newSlot) {
			delta[k] = newSlot
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffFlags(old, new Tree) map[string]any {
	delta := make(map[string]any)

	for k, newVal := range new.flags {
		oldVal, exists := old.flags[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	for k := range old.flags {
		if _, exists := new.flags[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *TreeDiff) IsEmpty() bool {
	return d == nil || (len(d.Slots) == 0 && len(d.Flags) == 0)
}
