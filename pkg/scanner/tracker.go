package scanner

import (
	"math"
	"sync"
	"time"
)

// SignalTracker follows the strongest signal across sweeps with a hold
// counter for hysteresis
type SignalTracker struct {
	mu          sync.RWMutex
	signals     map[int64]*SignalInfo // key: frequency in resolution steps
	holdCounter int
	holdMax     int
	lostAt      int
	resolution  float64

	active    *SignalInfo
	activeKey int64
	smoother  *FrequencySmoother

	onDetected func(SignalInfo)
	onLost     func(SignalInfo)
}

// NewSignalTracker creates a tracker. resolution is in MHz.
func NewSignalTracker(holdMax, lostAt int, resolution float64) *SignalTracker {
	return &SignalTracker{
		signals:    make(map[int64]*SignalInfo),
		holdMax:    holdMax,
		lostAt:     lostAt,
		resolution: resolution,
		smoother:   NewFrequencySmoother(),
	}
}

// DefaultTracker uses the package defaults
func DefaultTracker() *SignalTracker {
	return NewSignalTracker(DefaultHoldMax, DefaultLostThreshold, DefaultResolutionMHz)
}

// SetCallbacks registers detection callbacks. They run synchronously from
// Update with the tracker unlocked.
func (t *SignalTracker) SetCallbacks(onDetected, onLost func(SignalInfo)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDetected = onDetected
	t.onLost = onLost
}

func (t *SignalTracker) key(mhz float64) int64 {
	if t.resolution <= 0 {
		return int64(math.Round(mhz * 1e6))
	}
	return int64(math.Floor(mhz/t.resolution + 1e-9))
}

// Update processes one sweep
func (t *SignalTracker) Update(sw *Sweep) {
	var fire func(SignalInfo)
	var info SignalInfo

	t.mu.Lock()
	if peak, ok := sw.Peak(); ok {
		fire, info = t.detected(peak, sw.Timestamp)
	} else {
		fire, info = t.missed()
	}
	t.mu.Unlock()

	if fire != nil {
		fire(info)
	}
}

// detected and missed run with mu held
func (t *SignalTracker) detected(peak Hit, at time.Time) (func(SignalInfo), SignalInfo) {
	t.holdCounter = t.holdMax
	k := t.key(peak.FrequencyMHz)
	smoothed := t.smoother.Update(peak.FrequencyMHz)

	info, ok := t.signals[k]
	if ok {
		info.RawFrequencyMHz = peak.FrequencyMHz
		info.FrequencyMHz = smoothed
		info.RSSI = peak.RSSI
		info.LastSeen = at
		info.DetectionCount++
		if peak.RSSI > info.MaxRSSI {
			info.MaxRSSI = peak.RSSI
		}
	} else {
		info = &SignalInfo{
			FrequencyMHz:    smoothed,
			RawFrequencyMHz: peak.FrequencyMHz,
			RSSI:            peak.RSSI,
			MaxRSSI:         peak.RSSI,
			FirstSeen:       at,
			LastSeen:        at,
			DetectionCount:  1,
		}
		t.signals[k] = info
	}

	isNew := t.active == nil || k != t.activeKey
	t.active = info
	t.activeKey = k
	if isNew && t.onDetected != nil {
		return t.onDetected, *info
	}
	return nil, SignalInfo{}
}

func (t *SignalTracker) missed() (func(SignalInfo), SignalInfo) {
	if t.holdCounter == 0 {
		return nil, SignalInfo{}
	}
	t.holdCounter--

	var fire func(SignalInfo)
	var info SignalInfo
	if t.holdCounter == t.lostAt && t.active != nil && t.onLost != nil {
		fire, info = t.onLost, *t.active
	}
	if t.holdCounter == 0 {
		t.active = nil
		t.activeKey = 0
		t.smoother.Reset()
	}
	return fire, info
}

// ActiveSignal returns a copy of the currently tracked signal
func (t *SignalTracker) ActiveSignal() (SignalInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.active == nil {
		return SignalInfo{}, false
	}
	return *t.active, true
}

// Signals returns a copy of every signal seen
func (t *SignalTracker) Signals() []SignalInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]SignalInfo, 0, len(t.signals))
	for _, info := range t.signals {
		out = append(out, *info)
	}
	return out
}

// PruneOld removes signals not seen since the given time
func (t *SignalTracker) PruneOld(since time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for k, info := range t.signals {
		if info.LastSeen.Before(since) {
			if info == t.active {
				t.active = nil
			}
			delete(t.signals, k)
			n++
		}
	}
	return n
}

// Clear removes all tracked signals
func (t *SignalTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.signals = make(map[int64]*SignalInfo)
	t.active = nil
	t.activeKey = 0
	t.holdCounter = 0
	t.smoother.Reset()
}

func (t *SignalTracker) HoldCounter() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.holdCounter
}
