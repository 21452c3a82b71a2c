package radio

import (
	"errors"
	"sync"
)

// Burst records one EnterTX..Idle span on a Sim
type Burst struct {
	FrequencyMHz float64
	Power        PowerLevel
	States       []uint8
}

// Sim is an in-memory Transceiver for dry runs and tests. Reads replays
// the pin script in order and then reports 0.
type Sim struct {
	mu sync.Mutex

	Reads []uint8
	RSSI  float64

	// RSSIAt, when set, overrides RSSI per tuned frequency
	RSSIAt func(mhz float64) float64

	// FailTX, when set, is consulted on every EnterTX with the 0-based burst index
	FailTX func(burst int) error
	// FailOpen makes EnterRX fail, as an unplugged device would
	FailOpen error

	mode      Mode
	frequency float64
	power     PowerLevel
	readPos   int
	bursts    []Burst
	txCalls   int
	modes     []Mode
	closed    bool
}

// NewSim returns a Sim reporting the given RSSI
func NewSim(reads []uint8, rssi float64) *Sim {
	return &Sim{Reads: reads, RSSI: rssi, power: PowerMax}
}

var errSimClosed = errors.New("sim transceiver closed")

func (s *Sim) SetFrequency(mhz float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSimClosed
	}
	s.frequency = mhz
	return nil
}

func (s *Sim) SetPower(level PowerLevel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.power = level
	return nil
}

func (s *Sim) EnterRX() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailOpen != nil {
		return s.FailOpen
	}
	s.setMode(ModeRX)
	return nil
}

func (s *Sim) EnterTX() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.txCalls
	s.txCalls++
	if s.FailTX != nil {
		if err := s.FailTX(idx); err != nil {
			return err
		}
	}
	s.setMode(ModeTX)
	s.bursts = append(s.bursts, Burst{FrequencyMHz: s.frequency, Power: s.power})
	return nil
}

func (s *Sim) Idle() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setMode(ModeIdle)
	return nil
}

func (s *Sim) setMode(m Mode) {
	s.mode = m
	s.modes = append(s.modes, m)
}

func (s *Sim) ReadPin() (uint8, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readPos >= len(s.Reads) {
		return 0, nil
	}
	v := s.Reads[s.readPos]
	s.readPos++
	return v, nil
}

func (s *Sim) ReadRSSI() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RSSIAt != nil {
		return s.RSSIAt(s.frequency), nil
	}
	return s.RSSI, nil
}

// WritePin appends to the current burst while in TX
func (s *Sim) WritePin(state uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeTX || len(s.bursts) == 0 {
		return errors.New("sim: WritePin outside TX")
	}
	b := &s.bursts[len(s.bursts)-1]
	b.States = append(b.States, state)
	return nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Mode returns the current radio mode
func (s *Sim) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Frequency returns the last tuned frequency in MHz
func (s *Sim) Frequency() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frequency
}

// Power returns the last configured power level
func (s *Sim) Power() PowerLevel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.power
}

// Bursts returns a copy of the recorded transmit bursts
func (s *Sim) Bursts() []Burst {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Burst, len(s.bursts))
	for i, b := range s.bursts {
		out[i] = Burst{FrequencyMHz: b.FrequencyMHz, Power: b.Power, States: append([]uint8(nil), b.States...)}
	}
	return out
}

// Modes returns every mode transition in order
func (s *Sim) Modes() []Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Mode(nil), s.modes...)
}

// ReadsConsumed returns how many pin reads were taken
func (s *Sim) ReadsConsumed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readPos
}

// Closed reports whether Close was called
func (s *Sim) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
