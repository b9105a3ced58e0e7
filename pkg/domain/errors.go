package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrEmptySessionID is returned by stores when asked for the blank session.
var ErrEmptySessionID = errors.New("session id cannot be empty")
