package scanner

import "errors"

// Scanner errors
var (
	// ErrInvalidConfig indicates an inconsistent sweep range
	ErrInvalidConfig = errors.New("invalid scanner configuration")

	// ErrInvalidThreshold indicates a non-negative RSSI threshold
	ErrInvalidThreshold = errors.New("RSSI threshold must be negative (dBm)")

	// ErrInvalidDwellTime indicates a dwell time outside 1-1000 ms
	ErrInvalidDwellTime = errors.New("dwell time must be between 1-1000 ms")
)
