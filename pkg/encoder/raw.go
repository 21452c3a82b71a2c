package encoder

import (
	"fmt"

	"github.com/herlein/piflip/pkg/timing"
)

func checkBits(bits string) error {
	if bits == "" {
		return ErrEmptyCode
	}
	for i, c := range bits {
		if c != '0' && c != '1' {
			return fmt.Errorf("position %d %q: %w", i, c, ErrInvalidCode)
		}
	}
	return nil
}

// Raw emits one sample per bit with the bit as carrier state
func Raw(bits string, bitUS uint32) (timing.Sequence, error) {
	if err := checkBits(bits); err != nil {
		return nil, err
	}
	if bitUS == 0 {
		return nil, ErrInvalidWidth
	}
	seq := make(timing.Sequence, len(bits))
	for i, c := range bits {
		seq[i] = timing.Sample{State: uint8(c - '0'), DurationUS: bitUS}
	}
	return seq, nil
}

// Biphase emits two half-bit samples per bit: 1 is high-low, 0 is low-high
func Biphase(bits string, halfUS uint32) (timing.Sequence, error) {
	if err := checkBits(bits); err != nil {
		return nil, err
	}
	if halfUS == 0 {
		return nil, ErrInvalidWidth
	}
	seq := make(timing.Sequence, 0, len(bits)*2)
	for _, c := range bits {
		if c == '1' {
			seq = append(seq, timing.High(halfUS), timing.Low(halfUS))
		} else {
			seq = append(seq, timing.Low(halfUS), timing.High(halfUS))
		}
	}
	return seq, nil
}

// PulseWidth emits one sample per bit, 0 short and 1 long, with the carrier
// state alternating from high. It is the inverse of per-sample decoding.
func PulseWidth(bits string, shortUS, longUS uint32) (timing.Sequence, error) {
	if err := checkBits(bits); err != nil {
		return nil, err
	}
	if shortUS == 0 || longUS == 0 {
		return nil, ErrInvalidWidth
	}
	seq := make(timing.Sequence, len(bits))
	state := uint8(1)
	for i, c := range bits {
		d := shortUS
		if c == '1' {
			d = longUS
		}
		seq[i] = timing.Sample{State: state, DurationUS: d}
		state ^= 1
	}
	return seq, nil
}
