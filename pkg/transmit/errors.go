package transmit

import "errors"

// Transmit errors
var (
	// ErrInvalidRepeats indicates a repeat count below one
	ErrInvalidRepeats = errors.New("repeats must be at least 1")

	// ErrInvalidFuzzMode indicates an unknown fuzzing mode
	ErrInvalidFuzzMode = errors.New("unknown fuzz mode")

	// ErrInvalidJamMode indicates an unknown jamming pattern
	ErrInvalidJamMode = errors.New("unknown jam mode")

	// ErrInvalidSweep indicates a sweep with start above end or a step below 1 kHz
	ErrInvalidSweep = errors.New("invalid sweep range")

	// ErrInvalidBitLength indicates a brute-force width outside 1-16 bits
	ErrInvalidBitLength = errors.New("bit length must be between 1 and 16")

	// ErrInvalidPercent indicates a timing fuzz percentage outside (0, 100)
	ErrInvalidPercent = errors.New("fuzz percentage must be between 0 and 100")

	// ErrNoLoader indicates a by-name operation on an engine without a signal loader
	ErrNoLoader = errors.New("no signal loader configured")

	// ErrNoCapturer indicates capture-replay on an engine without a capturer
	ErrNoCapturer = errors.New("no capturer configured")

	// ErrNothingCaptured indicates a capture that produced no transitions
	ErrNothingCaptured = errors.New("no signal captured")
)
