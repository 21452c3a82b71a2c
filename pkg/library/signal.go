// Package library persists named captured signals and transmit playlists.
package library

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/herlein/piflip/pkg/timing"
)

// ModulationOOK is the only modulation the capture path produces
const ModulationOOK = "OOK"

// legacyHzThreshold separates MHz values from Hz values in old files
const legacyHzThreshold = 1000.0

// Signal is a named capture. FrequencyMHz is always megahertz once loaded.
type Signal struct {
	Name         string
	FrequencyMHz float64
	Timings      timing.Sequence
	RSSI         float64
	DurationS    float64
	SampleCount  int
	Modulation   string
	CreatedAt    time.Time
}

// Summary is the listing view of a Signal
type Summary struct {
	Name         string    `json:"name"`
	FrequencyMHz float64   `json:"frequency"`
	CreatedAt    time.Time `json:"timestamp"`
	TimingCount  int       `json:"timing_count"`
	RSSI         float64   `json:"rssi"`
}

// Summary returns the listing view
func (s *Signal) Summary() Summary {
	return Summary{
		Name:         s.Name,
		FrequencyMHz: s.FrequencyMHz,
		CreatedAt:    s.CreatedAt,
		TimingCount:  len(s.Timings),
		RSSI:         s.RSSI,
	}
}

type signalJSON struct {
	Name        string          `json:"name"`
	Frequency   float64         `json:"frequency"`
	Duration    float64         `json:"duration"`
	SampleCount int             `json:"sample_count"`
	Timings     timing.Sequence `json:"timings"`
	RSSI        float64         `json:"rssi"`
	Timestamp   string          `json:"timestamp"`
	Modulation  string          `json:"modulation"`
}

func (s Signal) MarshalJSON() ([]byte, error) {
	return json.Marshal(signalJSON{
		Name:        s.Name,
		Frequency:   s.FrequencyMHz,
		Duration:    s.DurationS,
		SampleCount: s.SampleCount,
		Timings:     s.Timings,
		RSSI:        s.RSSI,
		Timestamp:   s.CreatedAt.Format(time.RFC3339Nano),
		Modulation:  s.Modulation,
	})
}

// UnmarshalJSON accepts the current format and files written by older
// tools: frequencies in Hz and ISO timestamps without a zone.
func (s *Signal) UnmarshalJSON(data []byte) error {
	var raw signalJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	created, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return err
	}
	freq := raw.Frequency
	if freq > legacyHzThreshold {
		freq /= 1e6
	}
	mod := raw.Modulation
	if mod == "" {
		mod = ModulationOOK
	}
	*s = Signal{
		Name:         raw.Name,
		FrequencyMHz: freq,
		Timings:      raw.Timings,
		RSSI:         raw.RSSI,
		DurationS:    raw.Duration,
		SampleCount:  raw.SampleCount,
		Modulation:   mod,
		CreatedAt:    created,
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTimestamp(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", v)
}

// Validate checks the signal can be stored and replayed
func (s *Signal) Validate() error {
	if err := ValidateName(s.Name); err != nil {
		return err
	}
	if len(s.Timings) == 0 {
		return fmt.Errorf("%s: %w", s.Name, ErrNoTimings)
	}
	if err := s.Timings.Validate(); err != nil {
		return fmt.Errorf("%s: %w", s.Name, err)
	}
	return nil
}

// ValidateName rejects names that cannot be used as a single file name
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" || name == "." || name == ".." {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}
