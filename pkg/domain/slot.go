package domain

// Status is the lifecycle position of a Slot.
type Status string

const (
	StatusInit    Status = "init"    // Never requested, or reset
	StatusLoading Status = "loading" // Request in flight
	StatusSuccess Status = "success" // Last request committed data
	StatusError   Status = "error"   // Last request failed
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusInit, StatusLoading, StatusSuccess, StatusError:
		return true
	}
	return false
}

// Slot is the tracked state of one logical asynchronous operation.
type Slot struct {
	// Data is the last known good value, or the initial default.
	// It survives failures and refreshes.
	Data any `json:"data"`

	// Status is only changed by the transition functions.
	Status Status `json:"status"`

	// Error is set while Status is StatusError.
	Error *Failure `json:"error,omitempty"`
}

// NewSlot creates a Slot in its initial state.
func NewSlot(initial any) Slot {
	return Slot{
		Data:   Clone(initial),
		Status: StatusInit,
	}
}

// IsLoading reports whether a request for the slot is in flight.
func (s Slot) IsLoading() bool { return s.Status == StatusLoading }

// Failed reports whether the last request for the slot failed.
func (s Slot) Failed() bool { return s.Status == StatusError }
