package reducer

import "errors"

var (
	// ErrDuplicateRule is returned when two rules claim the same action kind.
	ErrDuplicateRule = errors.New("duplicate rule for action kind")

	// ErrUnknownSlot is returned when a rule targets a slot missing from the schema.
	ErrUnknownSlot = errors.New("rule targets unknown slot")

	// ErrUnknownFlag is returned when a rule sets a flag missing from the schema.
	ErrUnknownFlag = errors.New("rule sets unknown flag")

	// ErrIncompleteRule is returned when a rule has no transition and sets no flag.
	ErrIncompleteRule = errors.New("rule has no transition")
)
