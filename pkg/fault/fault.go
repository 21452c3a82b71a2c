// Package fault classifies errors returned by the capture, decode and
// transmit operations so callers can branch on the kind of failure.
package fault

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a failure
type Kind int

const (
	// Unknown is reported for errors that carry no Kind
	Unknown Kind = iota
	// HardwareUnavailable means the transceiver could not be opened or stopped responding
	HardwareUnavailable
	// InsufficientData means a signal had too few usable samples to decode
	InsufficientData
	// InvalidInput means a request was rejected before any hardware was touched
	InvalidInput
	// Busy means another operation holds the transceiver
	Busy
)

func (k Kind) String() string {
	switch k {
	case HardwareUnavailable:
		return "hardware unavailable"
	case InsufficientData:
		return "insufficient data"
	case InvalidInput:
		return "invalid input"
	case Busy:
		return "busy"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with its Kind and the operation that failed
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with a Kind. A nil err yields nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Invalid is shorthand for New(InvalidInput, ...)
func Invalid(op string, err error) error {
	return New(InvalidInput, op, err)
}

// Hardware is shorthand for New(HardwareUnavailable, ...)
func Hardware(op string, err error) error {
	return New(HardwareUnavailable, op, err)
}

// KindOf returns the Kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// Is reports whether err carries the given Kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
