package decoder

import (
	"strings"

	"github.com/herlein/piflip/pkg/timing"
)

// Kind is the classification of a single sample
type Kind byte

const (
	Short   Kind = 'S'
	Long    Kind = 'L'
	Unknown Kind = '?'
)

func (k Kind) String() string { return string(k) }

// Symbol is one classified sample
type Symbol struct {
	Index      int
	State      uint8
	DurationUS uint32
	Kind       Kind
}

// Decoded holds the symbol trace and the two bit views derived from it.
//
// Pulses carries one bit per classified sample (short=0, long=1). Unknown
// samples appear only in Trace and are counted in UnknownCount, so a noisy
// capture can shift later bits in Pulses.
//
// Bits pairs a high sample with the following low sample: short-long is 0,
// long-short is 1. Pairs of any other shape (sync gaps, tri-state halves,
// unknowns) are skipped.
type Decoded struct {
	Trace        []Symbol
	Pulses       string
	Bits         string
	UnknownCount int
}

// Decode classifies every sample against the alphabet. A nil alphabet
// marks every sample unknown.
func Decode(seq timing.Sequence, a *Alphabet) *Decoded {
	d := &Decoded{Trace: make([]Symbol, len(seq))}

	var pulses strings.Builder
	for i, s := range seq {
		k := a.Kind(s.DurationUS)
		switch k {
		case Short:
			pulses.WriteByte('0')
		case Long:
			pulses.WriteByte('1')
		default:
			d.UnknownCount++
		}
		d.Trace[i] = Symbol{Index: i, State: s.State, DurationUS: s.DurationUS, Kind: k}
	}
	d.Pulses = pulses.String()
	d.Bits = pairBits(d.Trace)
	return d
}

func pairBits(trace []Symbol) string {
	var b strings.Builder
	for i := 0; i+1 < len(trace); {
		hi, lo := trace[i], trace[i+1]
		if hi.State != 1 || lo.State != 0 {
			i++
			continue
		}
		switch {
		case hi.Kind == Short && lo.Kind == Long:
			b.WriteByte('0')
			i += 2
		case hi.Kind == Long && lo.Kind == Short:
			b.WriteByte('1')
			i += 2
		default:
			i++
		}
	}
	return b.String()
}

// TraceString renders the trace as S/L/? characters
func (d *Decoded) TraceString() string {
	var b strings.Builder
	b.Grow(len(d.Trace))
	for _, s := range d.Trace {
		b.WriteByte(byte(s.Kind))
	}
	return b.String()
}
