package runtime

import (
	"github.com/aretw0/statetree/pkg/domain"
	"github.com/aretw0/statetree/pkg/merge"
)

// BeginLoading moves the slot to loading and clears its error.
//
// Prior data is kept so a refresh in progress can still render stale
// values, unless a placeholder is given, in which case it replaces data.
func BeginLoading(tree domain.Tree, key string, placeholder ...any) domain.Tree {
	s, _ := tree.Slot(key)
	s.Status = domain.StatusLoading
	s.Error = nil
	if len(placeholder) > 0 {
		s.Data = domain.Clone(placeholder[0])
	}
	return tree.WithSlot(key, s)
}

// CommitSuccess stores value as the slot's data, or the result of policy
// applied to the prior data and value when a policy is given.
func CommitSuccess(tree domain.Tree, key string, value any, policy merge.Policy) domain.Tree {
	s, _ := tree.Slot(key)
	if policy == nil {
		policy = merge.Replace
	}
	s.Data = policy(s.Data, value)
	s.Status = domain.StatusSuccess
	s.Error = nil
	return tree.WithSlot(key, s)
}

// CommitFailure records errValue (tagged with extra context) and leaves the
// slot's data untouched.
func CommitFailure(tree domain.Tree, key string, errValue any, tags map[string]any) domain.Tree {
	s, _ := tree.Slot(key)
	s.Status = domain.StatusError
	s.Error = domain.NewFailure(errValue, tags)
	return tree.WithSlot(key, s)
}

// CommitFromOutcome commits a transport outcome: success data through
// policy, or the resolved failure. A failed outcome with no error payload
// records the generic failure.
func CommitFromOutcome(tree domain.Tree, key string, outcome domain.Outcome, policy merge.Policy, tags map[string]any) domain.Tree {
	if outcome.Succeeded() {
		return CommitSuccess(tree, key, outcome.Data, policy)
	}
	s, _ := tree.Slot(key)
	s.Status = domain.StatusError
	s.Error = outcome.Failure(tags)
	return tree.WithSlot(key, s)
}

// Reset returns the slot to its initial state.
func Reset(tree domain.Tree, key string, initial any) domain.Tree {
	return tree.WithSlot(key, domain.NewSlot(initial))
}
