package scanner

import "math"

// FrequencySmoother is an exponential moving average that adapts quickly
// to jumps larger than threshold and slowly to small drift.
type FrequencySmoother struct {
	value     float64
	threshold float64
	kFast     float64
	kSlow     float64
}

// NewFrequencySmoother uses the default threshold and coefficients
func NewFrequencySmoother() *FrequencySmoother {
	return &FrequencySmoother{threshold: DefaultSmoothThresholdMHz, kFast: DefaultKFast, kSlow: DefaultKSlow}
}

// Update folds in a new measurement and returns the smoothed value
func (s *FrequencySmoother) Update(v float64) float64 {
	if s.value == 0 {
		s.value = v
		return v
	}
	k := s.kSlow
	if math.Abs(v-s.value) > s.threshold {
		k = s.kFast
	}
	s.value += (v - s.value) * k
	return s.value
}

func (s *FrequencySmoother) Value() float64 { return s.value }

func (s *FrequencySmoother) Reset() { s.value = 0 }
