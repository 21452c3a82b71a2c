package scanner

import "time"

// Hit is one frequency whose RSSI cleared the threshold
type Hit struct {
	FrequencyMHz float64 `json:"frequency"`
	RSSI         float64 `json:"rssi"`
}

// Sweep is a full pass over the range
type Sweep struct {
	Readings  []Hit
	Hits      []Hit
	Timestamp time.Time
}

// Peak returns the strongest hit, if any
func (s *Sweep) Peak() (Hit, bool) {
	if len(s.Hits) == 0 {
		return Hit{}, false
	}
	best := s.Hits[0]
	for _, h := range s.Hits[1:] {
		if h.RSSI > best.RSSI {
			best = h
		}
	}
	return best, true
}

// SignalInfo represents a tracked signal with history
type SignalInfo struct {
	FrequencyMHz    float64   // smoothed
	RawFrequencyMHz float64   // last measured
	RSSI            float64   // dBm, last reading
	MaxRSSI         float64   // dBm
	FirstSeen       time.Time
	LastSeen        time.Time
	DetectionCount  uint32
}
