package domain

// Action is a dispatched message: an operation kind and an optional payload.
//
// Payload is an Outcome for response kinds and a raw value otherwise.
type Action struct {
	Kind    string `json:"kind" yaml:"kind"`
	Payload any    `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// NewAction creates an action of the given kind.
func NewAction(kind string, payload any) Action {
	return Action{Kind: kind, Payload: payload}
}

// Respond creates a response action carrying an Outcome.
func Respond(kind string, statusCode int, data any) Action {
	return Action{Kind: kind, Payload: Outcome{StatusCode: statusCode, Data: data}}
}
