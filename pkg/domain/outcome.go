package domain

import (
	"github.com/mitchellh/mapstructure"
)

// Outcome is the normalized result a transport reports for one request.
//
// A 2xx StatusCode means Data should be read. Any other code means Error
// should be read, but it may legitimately be absent.
type Outcome struct {
	StatusCode int `json:"status" mapstructure:"status"`
	Data       any `json:"data,omitempty" mapstructure:"data"`
	Error      any `json:"error,omitempty" mapstructure:"error"`
}

// Succeeded reports whether the status code is in the 2xx range.
func (o Outcome) Succeeded() bool {
	return o.StatusCode >= 200 && o.StatusCode < 300
}

// Failure resolves the error value of a failed outcome.
//
// Resolution order: the Error field, then an "error" entry inside a map
// Data (the convention of the remote API), then the generic failure.
func (o Outcome) Failure(tags map[string]any) *Failure {
	if o.Error != nil {
		return NewFailure(o.Error, tags)
	}
	if body, ok := o.Data.(map[string]any); ok {
		if detail, ok := body["error"]; ok && detail != nil {
			return NewFailure(detail, tags)
		}
	}
	return GenericFailure(tags)
}

// looseOutcome accepts both "status" and "statusCode" spellings.
type looseOutcome struct {
	Status     *int `mapstructure:"status"`
	StatusCode *int `mapstructure:"statusCode"`
	Data       any  `mapstructure:"data"`
	Error      any  `mapstructure:"error"`
}

// OutcomeFrom interprets an action payload as an Outcome.
//
// It accepts Outcome values, pointers to them, and loose maps (as decoded
// from JSON or YAML) that carry a "status" or "statusCode" entry. The
// second result is false when the payload is not outcome shaped.
func OutcomeFrom(payload any) (Outcome, bool) {
	switch v := payload.(type) {
	case Outcome:
		return v, true
	case *Outcome:
		if v == nil {
			return Outcome{}, false
		}
		return *v, true
	case map[string]any:
		var loose looseOutcome
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &loose,
		})
		if err != nil {
			return Outcome{}, false
		}
		if err := decoder.Decode(v); err != nil {
			return Outcome{}, false
		}
		out := Outcome{Data: v["data"], Error: v["error"]}
		switch {
		case loose.Status != nil:
			out.StatusCode = *loose.Status
		case loose.StatusCode != nil:
			out.StatusCode = *loose.StatusCode
		default:
			return Outcome{}, false
		}
		return out, true
	}
	return Outcome{}, false
}
