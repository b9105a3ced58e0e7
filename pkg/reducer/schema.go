package reducer

import (
	"github.com/aretw0/statetree/pkg/domain"
)

// Schema declares the slots of a tree with their initial data, and the
// scalar flags with their defaults.
type Schema struct {
	Slots map[string]any
	Flags map[string]any
}

// NewTree builds the initial tree: every slot in StatusInit.
func (s Schema) NewTree() domain.Tree {
	slots := make(map[string]domain.Slot, len(s.Slots))
	for key, initial := range s.Slots {
		slots[key] = domain.NewSlot(initial)
	}
	flags := make(map[string]any, len(s.Flags))
	for key, v := range s.Flags {
		flags[key] = domain.Clone(v)
	}
	return domain.NewTree(slots, flags)
}

// Initial returns the initial data of a slot.
func (s Schema) Initial(key string) any {
	return domain.Clone(s.Slots[key])
}

// HasSlot reports whether the schema declares key as a slot.
func (s Schema) HasSlot(key string) bool {
	_, ok := s.Slots[key]
	return ok
}

// HasFlag reports whether the schema declares key as a flag.
func (s Schema) HasFlag(key string) bool {
	_, ok := s.Flags[key]
	return ok
}
