package encoder

import "errors"

// Encoder errors
var (
	// ErrInvalidProtocol indicates an unsupported protocol name
	ErrInvalidProtocol = errors.New("unsupported protocol")

	// ErrInvalidCode indicates a code symbol other than 0, 1 or F
	ErrInvalidCode = errors.New("invalid code symbol")

	// ErrTristateUnsupported indicates 'F' was used with a binary-only protocol
	ErrTristateUnsupported = errors.New("protocol does not support tri-state 'F'")

	// ErrEmptyCode indicates an empty code or bit pattern
	ErrEmptyCode = errors.New("code is empty")

	// ErrInvalidWidth indicates a zero pulse width
	ErrInvalidWidth = errors.New("pulse width must be positive")
)
