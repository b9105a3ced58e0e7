package domain

import (
	"encoding/json"
	"sort"
)

// Tree is the immutable state of one domain area: a keyed collection of
// Slots plus a few scalar flags that live outside the Slot lifecycle.
//
// Every modifier returns a new Tree; the receiver is never changed, so
// references to an earlier Tree remain valid snapshots. The zero value is
// an empty tree.
type Tree struct {
	revision uint64
	slots    map[string]Slot
	flags    map[string]any
}

// NewTree creates a revision zero tree from slots and flags. The maps are
// copied.
func NewTree(slots map[string]Slot, flags map[string]any) Tree {
	t := Tree{
		slots: make(map[string]Slot, len(slots)),
		flags: make(map[string]any, len(flags)),
	}
	for k, s := range slots {
		t.slots[k] = s
	}
	for k, v := range flags {
		t.flags[k] = v
	}
	return t
}

// Revision increases with every modification. It lets observers detect
// change without comparing contents.
func (t Tree) Revision() uint64 { return t.revision }

// Slot returns the slot stored under key.
func (t Tree) Slot(key string) (Slot, bool) {
	s, ok := t.slots[key]
	return s, ok
}

// Has reports whether a slot exists under key.
func (t Tree) Has(key string) bool {
	_, ok := t.slots[key]
	return ok
}

// Flag returns the scalar flag stored under key.
func (t Tree) Flag(key string) (any, bool) {
	v, ok := t.flags[key]
	return v, ok
}

// SlotKeys returns the slot keys in lexical order.
func (t Tree) SlotKeys() []string {
	return sortedKeys(t.slots)
}

// FlagKeys returns the flag keys in lexical order.
func (t Tree) FlagKeys() []string {
	return sortedKeys(t.flags)
}

// WithSlot returns a new tree in which key holds s.
func (t Tree) WithSlot(key string, s Slot) Tree {
	next := t.copy()
	next.slots[key] = s
	return next
}

// WithFlag returns a new tree in which the flag key holds v.
func (t Tree) WithFlag(key string, v any) Tree {
	next := t.copy()
	next.flags[key] = v
	return next
}

// Rewrite returns a tree with every slot and flag passed through the given
// functions, keeping the revision. It is meant for layers that transform
// content at rest (masking, redaction) without producing a new state. A
// nil function leaves its part unchanged.
func (t Tree) Rewrite(slotFn func(key string, s Slot) Slot, flagFn func(key string, v any) any) Tree {
	next := t.copy()
	next.revision = t.revision
	for k, s := range next.slots {
		if slotFn != nil {
			next.slots[k] = slotFn(k, s)
		}
	}
	for k, v := range next.flags {
		if flagFn != nil {
			next.flags[k] = flagFn(k, v)
		}
	}
	return next
}

// Snapshot returns a deep copy of the tree contents as plain maps, suitable
// for rendering or JSON encoding by consumers that do not know the types.
func (t Tree) Snapshot() map[string]any {
	slots := make(map[string]any, len(t.slots))
	for k, s := range t.slots {
		entry := map[string]any{
			"data":   Clone(s.Data),
			"status": string(s.Status),
		}
		if s.Error != nil {
			entry["error"] = map[string]any{
				"message": s.Error.Message,
				"detail":  Clone(s.Error.Detail),
				"tags":    cloneMap(s.Error.Tags),
			}
		}
		slots[k] = entry
	}
	return map[string]any{
		"revision": t.revision,
		"slots":    slots,
		"flags":    cloneMap(t.flags),
	}
}

// copy duplicates the top-level maps; slot values are shared.
func (t Tree) copy() Tree {
	next := Tree{
		revision: t.revision + 1,
		slots:    make(map[string]Slot, len(t.slots)+1),
		flags:    make(map[string]any, len(t.flags)+1),
	}
	for k, s := range t.slots {
		next.slots[k] = s
	}
	for k, v := range t.flags {
		next.flags[k] = v
	}
	return next
}

type treeJSON struct {
	Revision uint64          `json:"revision"`
	Slots    map[string]Slot `json:"slots"`
	Flags    map[string]any  `json:"flags,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (t Tree) MarshalJSON() ([]byte, error) {
	slots := t.slots
	if slots == nil {
		slots = map[string]Slot{}
	}
	return json.Marshal(treeJSON{
		Revision: t.revision,
		Slots:    slots,
		Flags:    t.flags,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var raw treeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = NewTree(raw.Slots, raw.Flags)
	t.revision = raw.Revision
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
