package reducer

import (
	"fmt"

	"github.com/aretw0/statetree/pkg/merge"
)

// Table collects rules through a fluent builder.
type Table struct {
	rules []*Rule
}

// NewTable creates an empty rule table.
func NewTable() *Table {
	return &Table{}
}

// On starts a rule for an action kind.
func (t *Table) On(kind string) *RuleBuilder {
	r := &Rule{Kind: kind}
	t.rules = append(t.rules, r)
	return &RuleBuilder{rule: r}
}

// Rules returns a copy of the collected rules in declaration order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		out[i] = *r
	}
	return out
}

// compile validates the rules against a schema and indexes them by kind.
func (t *Table) compile(schema Schema) (map[string]Rule, error) {
	index := make(map[string]Rule, len(t.rules))
	for _, r := range t.rules {
		if _, exists := index[r.Kind]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRule, r.Kind)
		}
		rule := *r
		if rule.Transition == transitionNone {
			if len(rule.Flags) == 0 && rule.PayloadFlag == "" {
				return nil, fmt.Errorf("%w: %s", ErrIncompleteRule, rule.Kind)
			}
			rule.Transition = TransitionSetFlag
		}
		for _, slot := range rule.slots() {
			if !schema.HasSlot(slot) {
				return nil, fmt.Errorf("%w: %s (kind %s)", ErrUnknownSlot, slot, rule.Kind)
			}
		}
		for flag := range rule.Flags {
			if !schema.HasFlag(flag) {
				return nil, fmt.Errorf("%w: %s (kind %s)", ErrUnknownFlag, flag, rule.Kind)
			}
		}
		if rule.PayloadFlag != "" && !schema.HasFlag(rule.PayloadFlag) {
			return nil, fmt.Errorf("%w: %s (kind %s)", ErrUnknownFlag, rule.PayloadFlag, rule.Kind)
		}
		index[rule.Kind] = rule
	}
	return index, nil
}

// RuleBuilder configures a single rule.
type RuleBuilder struct {
	rule *Rule
}

// Begin starts loading slot, keeping its stale data.
func (b *RuleBuilder) Begin(slot string) *RuleBuilder {
	b.rule.Slot = slot
	b.rule.Transition = TransitionBegin
	return b
}

// BeginWith starts loading slot and replaces its data with placeholder.
func (b *RuleBuilder) BeginWith(slot string, placeholder any) *RuleBuilder {
	b.Begin(slot)
	b.rule.Placeholder = placeholder
	b.rule.HasPlaceholder = true
	return b
}

// Commit commits an Outcome payload into slot.
func (b *RuleBuilder) Commit(slot string) *RuleBuilder {
	b.rule.Slot = slot
	b.rule.Transition = TransitionCommit
	return b
}

// Succeed commits the payload into slot as success.
func (b *RuleBuilder) Succeed(slot string) *RuleBuilder {
	b.rule.Slot = slot
	b.rule.Transition = TransitionSucceed
	return b
}

// Fail records the payload as the failure of slot.
func (b *RuleBuilder) Fail(slot string) *RuleBuilder {
	b.rule.Slot = slot
	b.rule.Transition = TransitionFail
	return b
}

// Reset returns slots to their initial state.
func (b *RuleBuilder) Reset(slot string, more ...string) *RuleBuilder {
	b.rule.Slot = slot
	b.rule.Resets = append(b.rule.Resets, more...)
	b.rule.Transition = TransitionReset
	return b
}

// RemoveWhere removes from slot the records whose field equals the payload.
func (b *RuleBuilder) RemoveWhere(slot, field string) *RuleBuilder {
	return b.Succeed(slot).Merge(merge.FilterRemove(field))
}

// Ignore recognizes the kind without touching the tree.
func (b *RuleBuilder) Ignore() *RuleBuilder {
	b.rule.Transition = TransitionIgnore
	return b
}

// Merge sets the policy used on the success path.
func (b *RuleBuilder) Merge(p merge.Policy) *RuleBuilder {
	b.rule.Policy = p
	return b
}

// Tag attaches context to failures recorded by the rule.
func (b *RuleBuilder) Tag(key string, value any) *RuleBuilder {
	if b.rule.Tags == nil {
		b.rule.Tags = make(map[string]any)
	}
	b.rule.Tags[key] = value
	return b
}

// SetFlag sets a scalar flag after the transition. A rule with only flags
// is a pure flag rule.
func (b *RuleBuilder) SetFlag(key string, value any) *RuleBuilder {
	if b.rule.Flags == nil {
		b.rule.Flags = make(map[string]any)
	}
	b.rule.Flags[key] = value
	return b
}

// FlagFromPayload stores the action payload in a scalar flag.
func (b *RuleBuilder) FlagFromPayload(key string) *RuleBuilder {
	b.rule.PayloadFlag = key
	return b
}
