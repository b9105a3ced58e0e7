package reducer

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/aretw0/statetree/internal/logging"
	"github.com/aretw0/statetree/internal/runtime"
	"github.com/aretw0/statetree/pkg/domain"
)

// Reducer applies a compiled rule table to trees.
// It holds no state between calls and is safe for concurrent use.
type Reducer struct {
	area   string
	schema Schema
	rules  map[string]Rule
	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// Option defines a functional option for configuring the Reducer.
type Option func(*Reducer)

// WithArea names the domain area in events and logs.
func WithArea(name string) Option {
	return func(r *Reducer) {
		r.area = name
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Reducer) {
		r.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reducer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New compiles table against schema.
func New(schema Schema, table *Table, opts ...Option) (*Reducer, error) {
	rules, err := table.compile(schema)
	if err != nil {
		return nil, err
	}
	r := &Reducer{
		schema: schema,
		rules:  rules,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.area != "" {
		r.logger = r.logger.With("area", r.area)
	}
	return r, nil
}

// Area returns the configured area name.
func (r *Reducer) Area() string { return r.area }

// Schema returns the schema the reducer was compiled against.
func (r *Reducer) Schema() Schema { return r.schema }

// Initial returns a fresh tree for the schema.
func (r *Reducer) Initial() domain.Tree { return r.schema.NewTree() }

// Rule returns the rule registered for kind.
func (r *Reducer) Rule(kind string) (Rule, bool) {
	rule, ok := r.rules[kind]
	return rule, ok
}

// Rules returns every compiled rule ordered by kind.
func (r *Reducer) Rules() []Rule {
	out := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Kinds returns the number of recognized action kinds.
func (r *Reducer) Kinds() int { return len(r.rules) }

// Reduce applies action to tree and returns the resulting tree.
func (r *Reducer) Reduce(tree domain.Tree, action domain.Action) domain.Tree {
	return r.ReduceContext(context.Background(), tree, action)
}

// ReduceContext is Reduce with a context handed to lifecycle hooks.
//
// Unknown kinds and ignore rules return tree itself. The function never
// fails: malformed payloads end up as failures or empty merge
// contributions recorded in the tree.
func (r *Reducer) ReduceContext(ctx context.Context, tree domain.Tree, action domain.Action) domain.Tree {
	rule, ok := r.rules[action.Kind]
	if !ok {
		r.logger.Debug("Ignoring unknown action", "kind", action.Kind)
		r.emitIgnored(ctx, action.Kind, domain.IgnoreUnknownKind)
		return tree
	}
	if rule.Transition == TransitionIgnore {
		r.logger.Debug("Action ignored by rule", "kind", action.Kind)
		r.emitIgnored(ctx, action.Kind, domain.IgnoreByRule)
		return tree
	}

	next := r.apply(tree, rule, action.Payload)
	for key, v := range rule.Flags {
		next = next.WithFlag(key, domain.Clone(v))
	}
	if rule.PayloadFlag != "" {
		next = next.WithFlag(rule.PayloadFlag, domain.Clone(action.Payload))
	}

	r.emitTransitions(ctx, rule, tree, next)
	return next
}

func (r *Reducer) apply(tree domain.Tree, rule Rule, payload any) domain.Tree {
	switch rule.Transition {
	case TransitionBegin:
		if rule.HasPlaceholder {
			return runtime.BeginLoading(tree, rule.Slot, rule.Placeholder)
		}
		return runtime.BeginLoading(tree, rule.Slot)

	case TransitionCommit:
		outcome, ok := domain.OutcomeFrom(payload)
		if !ok {
			r.logger.Warn("Response payload is not an outcome", "kind", rule.Kind, "slot", rule.Slot)
		}
		return runtime.CommitFromOutcome(tree, rule.Slot, outcome, rule.Policy, rule.Tags)

	case TransitionSucceed:
		value := payload
		if outcome, ok := domain.OutcomeFrom(payload); ok {
			if !outcome.Succeeded() {
				return runtime.CommitFailure(tree, rule.Slot, outcome.Failure(nil), rule.Tags)
			}
			value = outcome.Data
		}
		return runtime.CommitSuccess(tree, rule.Slot, value, rule.Policy)

	case TransitionFail:
		var detail any = payload
		if outcome, ok := domain.OutcomeFrom(payload); ok {
			detail = outcome.Failure(nil)
		}
		return runtime.CommitFailure(tree, rule.Slot, detail, rule.Tags)

	case TransitionReset:
		next := tree
		for _, slot := range rule.slots() {
			next = runtime.Reset(next, slot, r.schema.Initial(slot))
		}
		return next
	}
	return tree
}

func (r *Reducer) emitTransitions(ctx context.Context, rule Rule, before, after domain.Tree) {
	slots := rule.slots()
	if len(slots) == 0 {
		return
	}
	now := time.Now()
	for _, key := range slots {
		from, _ := before.Slot(key)
		to, _ := after.Slot(key)

		r.logger.Debug("Slot transition",
			"kind", rule.Kind,
			"slot", key,
			"from", from.Status,
			"to", to.Status,
		)
		if to.Status == domain.StatusError && to.Error != nil {
			r.logger.Info("Operation failed",
				"kind", rule.Kind,
				"slot", key,
				"err", to.Error.Message,
			)
		}

		if r.hooks.OnTransition != nil {
			r.hooks.OnTransition(ctx, &domain.TransitionEvent{
				EventBase: domain.EventBase{
					Timestamp: now,
					Type:      domain.EventTransition,
					Area:      r.area,
					Kind:      rule.Kind,
				},
				Slot:    key,
				From:    from.Status,
				To:      to.Status,
				Failure: to.Error,
			})
		}
	}
}

func (r *Reducer) emitIgnored(ctx context.Context, kind string, reason domain.IgnoreReason) {
	if r.hooks.OnIgnored == nil {
		return
	}
	r.hooks.OnIgnored(ctx, &domain.IgnoredEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventIgnored,
			Area:      r.area,
			Kind:      kind,
		},
		Reason: reason,
	})
}
