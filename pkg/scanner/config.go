package scanner

import (
	"fmt"
	"math"
	"time"

	"github.com/herlein/piflip/pkg/radio"
)

// Config defines one sweep. Frequencies run from StartMHz to EndMHz
// inclusive in StepMHz increments.
type Config struct {
	StartMHz     float64       `json:"start_mhz"`
	EndMHz       float64       `json:"end_mhz"`
	StepMHz      float64       `json:"step_mhz"`
	ThresholdDBm float64       `json:"threshold_dbm"`
	Dwell        time.Duration `json:"dwell"`
}

// DefaultConfig returns the 433-434 MHz sweep
func DefaultConfig() Config {
	return Config{
		StartMHz:     DefaultStartMHz,
		EndMHz:       DefaultEndMHz,
		StepMHz:      DefaultStepMHz,
		ThresholdDBm: DefaultThresholdDBm,
		Dwell:        DefaultDwell,
	}
}

// Validate checks the configuration for errors
func (c Config) Validate() error {
	for _, f := range []float64{c.StartMHz, c.EndMHz} {
		if err := radio.ValidateFrequency(f); err != nil {
			return err
		}
	}
	if c.StartMHz > c.EndMHz {
		return fmt.Errorf("%w: start %.3f MHz above end %.3f MHz", ErrInvalidConfig, c.StartMHz, c.EndMHz)
	}
	if c.StepMHz <= 0 {
		return fmt.Errorf("%w: step must be positive", ErrInvalidConfig)
	}
	if c.ThresholdDBm >= 0 {
		return ErrInvalidThreshold
	}
	if c.Dwell < MinDwell || c.Dwell > MaxDwell {
		return ErrInvalidDwellTime
	}
	return nil
}

// Frequencies lists the sweep points, rounded to 1 kHz. Points that fall in
// the gap between two bands are skipped.
func (c Config) Frequencies() []float64 {
	var out []float64
	for i := 0; ; i++ {
		f := math.Round((c.StartMHz+float64(i)*c.StepMHz)*1000) / 1000
		if f > c.EndMHz+1e-9 {
			break
		}
		if radio.IsValidFrequency(f) {
			out = append(out, f)
		}
	}
	return out
}
