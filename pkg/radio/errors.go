package radio

import "errors"

// Radio errors
var (
	// ErrBusy indicates another operation currently owns the transceiver
	ErrBusy = errors.New("transceiver is busy")

	// ErrClosed indicates the handle was already closed
	ErrClosed = errors.New("transceiver handle is closed")

	// ErrFrequencyOutOfRange indicates a frequency is outside the supported bands
	ErrFrequencyOutOfRange = errors.New("frequency out of valid range")
)
