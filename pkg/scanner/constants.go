// Package scanner sweeps a frequency range measuring RSSI and tracks the
// signals it finds across repeated sweeps.
package scanner

import "time"

// Default sweep parameters
const (
	DefaultStartMHz     = 433.0
	DefaultEndMHz       = 434.0
	DefaultStepMHz      = 0.1
	DefaultThresholdDBm = -80.0
	DefaultDwell        = 100 * time.Millisecond

	MinDwell = time.Millisecond
	MaxDwell = time.Second
)

// Signal tracking defaults
const (
	// DefaultHoldMax is the number of empty sweeps before a signal is dropped
	DefaultHoldMax = 20

	// DefaultLostThreshold is the hold counter value that fires OnLost
	DefaultLostThreshold = 15

	// DefaultResolutionMHz groups detections into one tracked signal
	DefaultResolutionMHz = 0.05

	// DefaultSweepInterval separates Monitor sweeps
	DefaultSweepInterval = 250 * time.Millisecond
)

// Frequency smoothing defaults
const (
	// DefaultSmoothThresholdMHz separates fast and slow adaptation
	DefaultSmoothThresholdMHz = 0.5

	DefaultKFast = 0.9
	DefaultKSlow = 0.03
)
