package domain

import (
	"errors"
	"fmt"
)

// GenericFailureMessage is recorded when a failed operation carries no
// usable error payload.
const GenericFailureMessage = "Unable to complete operation"

// Failure is the error value recorded in a Slot.
type Failure struct {
	// Message is a human readable summary.
	Message string `json:"message"`

	// Detail keeps the raw error payload reported by the transport, if any.
	Detail any `json:"detail,omitempty"`

	// Tags carries extra context, such as which stage of a multi-stage
	// flow failed.
	Tags map[string]any `json:"tags,omitempty"`
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f == nil {
		return GenericFailureMessage
	}
	return f.Message
}

// Tag returns the value of a tag, or nil.
func (f *Failure) Tag(key string) any {
	if f == nil {
		return nil
	}
	return f.Tags[key]
}

// GenericFailure returns the normalized failure used when no error payload
// is available.
func GenericFailure(tags map[string]any) *Failure {
	return &Failure{
		Message: GenericFailureMessage,
		Tags:    cloneMap(tags),
	}
}

// NewFailure builds a Failure from whatever a transport reported as error.
// It accepts nil, strings, errors, Failures and loose JSON objects, and
// never fails: anything unrecognized becomes the Detail of a generic failure.
func NewFailure(detail any, tags map[string]any) *Failure {
	switch v := detail.(type) {
	case nil:
		return GenericFailure(tags)
	case *Failure:
		if v == nil {
			return GenericFailure(tags)
		}
		return v.withTags(tags)
	case Failure:
		return v.withTags(tags)
	case string:
		if v == "" {
			return GenericFailure(tags)
		}
		return &Failure{Message: v, Detail: v, Tags: cloneMap(tags)}
	case error:
		var f *Failure
		if errors.As(v, &f) && f != nil {
			return f.withTags(tags)
		}
		return &Failure{Message: v.Error(), Tags: cloneMap(tags)}
	case map[string]any:
		return &Failure{Message: messageOf(v), Detail: Clone(v), Tags: cloneMap(tags)}
	default:
		return &Failure{Message: GenericFailureMessage, Detail: Clone(v), Tags: cloneMap(tags)}
	}
}

func (f Failure) withTags(tags map[string]any) *Failure {
	merged := cloneMap(f.Tags)
	for k, v := range tags {
		if merged == nil {
			merged = make(map[string]any, len(tags))
		}
		merged[k] = v
	}
	return &Failure{Message: f.Message, Detail: Clone(f.Detail), Tags: merged}
}

// messageOf picks a summary out of a structured error body. Field error
// maps (e.g. {"code": ["invalid"]}) are summarized generically.
func messageOf(body map[string]any) string {
	for _, key := range []string{"message", "error", "msg"} {
		if s, ok := body[key].(string); ok && s != "" {
			return s
		}
	}
	if len(body) == 1 {
		for k, v := range body {
			return fmt.Sprintf("%s: %v", k, v)
		}
	}
	return GenericFailureMessage
}

func cloneMap(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}
