// Package timing holds the run-length OOK representation shared by capture,
// decode and transmit: a sequence of (state, duration) samples.
package timing

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrEmptySequence indicates a sequence with no samples
	ErrEmptySequence = errors.New("timing sequence is empty")

	// ErrZeroDuration indicates a sample whose duration is zero
	ErrZeroDuration = errors.New("sample duration must be positive")

	// ErrInvalidState indicates a sample state other than 0 or 1
	ErrInvalidState = errors.New("sample state must be 0 or 1")
)

// Sample is one run of constant carrier state
type Sample struct {
	State      uint8  `json:"state"`
	DurationUS uint32 `json:"duration_us"`
}

// Duration returns the sample length as a time.Duration
func (s Sample) Duration() time.Duration {
	return time.Duration(s.DurationUS) * time.Microsecond
}

func (s Sample) String() string {
	return fmt.Sprintf("%d:%dus", s.State, s.DurationUS)
}

// High and Low build samples of the given length in microseconds
func High(us uint32) Sample { return Sample{State: 1, DurationUS: us} }
func Low(us uint32) Sample  { return Sample{State: 0, DurationUS: us} }

// Sequence is an ordered list of samples, in transmission order
type Sequence []Sample

// FromSamples run-length encodes raw pin reads taken every interval.
// Any non-zero read counts as high.
func FromSamples(reads []uint8, interval time.Duration) Sequence {
	if len(reads) == 0 {
		return nil
	}

	var seq Sequence
	current := normalize(reads[0])
	count := 0
	for _, r := range reads {
		s := normalize(r)
		if s == current {
			count++
			continue
		}
		seq = append(seq, Sample{State: current, DurationUS: runLength(count, interval)})
		current = s
		count = 1
	}
	return append(seq, Sample{State: current, DurationUS: runLength(count, interval)})
}

func normalize(r uint8) uint8 {
	if r != 0 {
		return 1
	}
	return 0
}

func runLength(count int, interval time.Duration) uint32 {
	us := int64(count) * int64(interval) / int64(time.Microsecond)
	if us < 1 {
		us = 1
	}
	return uint32(us)
}

// Validate checks every sample has a 0/1 state and a positive duration
func (s Sequence) Validate() error {
	if len(s) == 0 {
		return ErrEmptySequence
	}
	for i, sample := range s {
		if sample.State > 1 {
			return fmt.Errorf("sample %d: %w", i, ErrInvalidState)
		}
		if sample.DurationUS == 0 {
			return fmt.Errorf("sample %d: %w", i, ErrZeroDuration)
		}
	}
	return nil
}

// Total returns the summed duration of all samples
func (s Sequence) Total() time.Duration {
	var us uint64
	for _, sample := range s {
		us += uint64(sample.DurationUS)
	}
	return time.Duration(us) * time.Microsecond
}

// Scale multiplies every duration by mult, truncating and clamping to 1us
func (s Sequence) Scale(mult float64) Sequence {
	out := make(Sequence, len(s))
	for i, sample := range s {
		d := int64(float64(sample.DurationUS) * mult)
		if d < 1 {
			d = 1
		}
		out[i] = Sample{State: sample.State, DurationUS: uint32(d)}
	}
	return out
}

// Clone returns an independent copy
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}

const (
	waveHigh = "█"
	waveLow  = "▁"
)

// Waveform renders the sequence as a single line of width columns, each
// sample taking a share of columns proportional to its duration (at least one)
func (s Sequence) Waveform(width int) string {
	if width <= 0 {
		return ""
	}
	total := s.Total()
	if len(s) == 0 || total == 0 {
		return strings.Repeat(waveLow, width)
	}

	var b strings.Builder
	cols := 0
	for _, sample := range s {
		w := int(float64(sample.Duration()) / float64(total) * float64(width))
		if w < 1 {
			w = 1
		}
		if cols+w > width {
			w = width - cols
		}
		glyph := waveLow
		if sample.State == 1 {
			glyph = waveHigh
		}
		b.WriteString(strings.Repeat(glyph, w))
		cols += w
		if cols >= width {
			break
		}
	}
	if cols < width {
		b.WriteString(strings.Repeat(waveLow, width-cols))
	}
	return b.String()
}
