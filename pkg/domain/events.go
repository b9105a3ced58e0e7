package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransition EventType = "transition"
	EventIgnored    EventType = "ignored"
)

// IgnoreReason tells why an action left the tree untouched.
type IgnoreReason string

const (
	IgnoreUnknownKind IgnoreReason = "unknown_kind" // No rule for the kind
	IgnoreByRule      IgnoreReason = "by_rule"      // Rule explicitly ignores the kind
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Area      string    `json:"area,omitempty"`
	Kind      string    `json:"kind"`
}

// TransitionEvent reports a slot moving through its lifecycle.
type TransitionEvent struct {
	EventBase
	Slot    string   `json:"slot"`
	From    Status   `json:"from"`
	To      Status   `json:"to"`
	Failure *Failure `json:"failure,omitempty"`
}

// IgnoredEvent reports an action that did not change the tree.
type IgnoredEvent struct {
	EventBase
	Reason IgnoreReason `json:"reason"`
}

// LifecycleHooks defines callbacks for reducer observability.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnIgnored    func(context.Context, *IgnoredEvent)
}

// CombineHooks fans every event out to all the given hooks in order.
func CombineHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition: func(ctx context.Context, e *TransitionEvent) {
			for _, h := range hooks {
				if h.OnTransition != nil {
					h.OnTransition(ctx, e)
				}
			}
		},
		OnIgnored: func(ctx context.Context, e *IgnoredEvent) {
			for _, h := range hooks {
				if h.OnIgnored != nil {
					h.OnIgnored(ctx, e)
				}
			}
		},
	}
}
