/*
Package domain contains the core value types of the state tree.

It defines the units of tracked state for asynchronous operations and the
messages that move them. The package is kept pure and free of I/O or
persistence concerns; adapters and the reducer build on it.

# Key Entities

  - Slot: the tracked state of one logical operation (data, status, error).
  - Tree: an immutable keyed collection of Slots plus scalar flags.
  - Outcome: the normalized result a transport reports for a request.
  - Action: a dispatched message naming an operation kind and a payload.
  - Failure: the error value recorded in a Slot when an operation fails.

# Slot Data

Slot data and flags are JSON shaped: maps of string keys, []any, strings,
numbers, booleans and nil. Clone converts typed Go values to that shape;
NewSlot, the transitions and the merge policies pass everything they
store through it, so a tree never shares memory with the caller.
*/
package domain
