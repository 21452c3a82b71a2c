package library

import "errors"

// Library errors
var (
	// ErrNotFound indicates no signal or playlist with the requested name
	ErrNotFound = errors.New("not found")

	// ErrInvalidName indicates a name that cannot be stored
	ErrInvalidName = errors.New("invalid name")

	// ErrNoTimings indicates a signal without timing data
	ErrNoTimings = errors.New("no timing data")

	// ErrEmptyPlaylist indicates a playlist without steps
	ErrEmptyPlaylist = errors.New("playlist has no steps")
)
