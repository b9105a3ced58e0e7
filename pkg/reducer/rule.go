package reducer

import (
	"github.com/aretw0/statetree/pkg/merge"
)

// Transition selects what a rule does to its slot.
type Transition int

const (
	transitionNone Transition = iota

	// TransitionBegin starts loading (begin-loading).
	TransitionBegin
	// TransitionCommit commits an Outcome payload (commit-from-outcome).
	TransitionCommit
	// TransitionSucceed commits the payload as success data (commit-success).
	// An Outcome payload contributes its Data.
	TransitionSucceed
	// TransitionFail records the payload as failure (commit-failure).
	TransitionFail
	// TransitionReset returns the slot, and any extra slots, to init.
	TransitionReset
	// TransitionSetFlag only sets scalar flags.
	TransitionSetFlag
	// TransitionIgnore recognizes the kind but leaves the tree untouched.
	TransitionIgnore
)

var transitionNames = map[Transition]string{
	TransitionBegin:   "begin",
	TransitionCommit:  "commit",
	TransitionSucceed: "succeed",
	TransitionFail:    "fail",
	TransitionReset:   "reset",
	TransitionSetFlag: "set_flag",
	TransitionIgnore:  "ignore",
}

func (t Transition) String() string {
	if name, ok := transitionNames[t]; ok {
		return name
	}
	return "none"
}

// Rule maps one action kind to its effect on the tree.
type Rule struct {
	Kind       string
	Slot       string
	Transition Transition

	// Placeholder replaces slot data on begin when HasPlaceholder is set.
	Placeholder    any
	HasPlaceholder bool

	// Policy is consulted on the success path instead of overwriting.
	Policy merge.Policy

	// Tags are attached to failures recorded by this rule.
	Tags map[string]any

	// Resets lists extra slots returned to init by a reset rule.
	Resets []string

	// Flags are set after the transition.
	Flags map[string]any

	// PayloadFlag, when set, receives the action payload as flag value.
	PayloadFlag string
}

// slots lists every slot the rule touches.
func (r Rule) slots() []string {
	if r.Slot == "" {
		return r.Resets
	}
	return append([]string{r.Slot}, r.Resets...)
}
