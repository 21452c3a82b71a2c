package transmit

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/herlein/piflip/pkg/decoder"
	"github.com/herlein/piflip/pkg/encoder"
	"github.com/herlein/piflip/pkg/fault"
	"github.com/herlein/piflip/pkg/timing"
)

// FuzzMode selects how candidate codes are derived from the captured bits
type FuzzMode string

const (
	FuzzBitFlip   FuzzMode = "bit_flip"
	FuzzRandom    FuzzMode = "random"
	FuzzIncrement FuzzMode = "increment"
)

// Fuzz defaults
const (
	DefaultFuzzAttempts = 100
	DefaultFuzzDelay    = 100 * time.Millisecond
	FuzzRepeats         = 2
	FuzzShortUS         = 350
	FuzzLongUS          = 1050
	maxRandomFlips      = 5

	DefaultTimingPercent    = 10.0
	DefaultTimingIterations = 50
	TimingFuzzPause         = 300 * time.Millisecond
)

// ParseFuzzMode validates a mode name
func ParseFuzzMode(s string) (FuzzMode, error) {
	switch m := FuzzMode(strings.ToLower(s)); m {
	case FuzzBitFlip, FuzzRandom, FuzzIncrement:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFuzzMode, s)
}

// FuzzRequest describes a code fuzzing run. Zero MaxAttempts and Delay take
// the defaults.
type FuzzRequest struct {
	Signal      string
	Mode        FuzzMode
	MaxAttempts int
	Delay       time.Duration
}

// FuzzAttempt is one transmitted candidate
type FuzzAttempt struct {
	Attempt    int    `json:"attempt"`
	Bits       string `json:"bits"`
	Successful int    `json:"successful"`
	Error      string `json:"error,omitempty"`
}

// FuzzResult summarizes a fuzzing run
type FuzzResult struct {
	Mode     FuzzMode      `json:"mode"`
	BaseBits string        `json:"base_bits"`
	Attempts []FuzzAttempt `json:"attempts"`
}

// Fuzz decodes a stored signal into bits and transmits mutated versions of
// them, re-encoded as pulse width, at the signal's frequency.
//
// bit_flip inverts one position per attempt, left to right, so it makes at
// most len(bits) attempts. random inverts 1 to 5 distinct positions.
// increment sends base+k for attempt k, wrapping at the code width.
func (e *Engine) Fuzz(ctx context.Context, req FuzzRequest) (*FuzzResult, error) {
	if _, err := ParseFuzzMode(string(req.Mode)); err != nil {
		return nil, fault.Invalid("fuzz", err)
	}
	if req.MaxAttempts <= 0 {
		req.MaxAttempts = DefaultFuzzAttempts
	}
	if req.Delay <= 0 {
		req.Delay = DefaultFuzzDelay
	}

	sig, err := e.load(req.Signal)
	if err != nil {
		return nil, err
	}
	analysis, err := e.analyzer().Analyze(sig.Timings)
	if err != nil {
		return nil, err
	}
	base := analysis.Decoded.Pulses
	if base == "" {
		return nil, fault.New(fault.InsufficientData, "fuzz", decoder.ErrUnclassifiable)
	}

	attempts := req.MaxAttempts
	if req.Mode == FuzzBitFlip && len(base) < attempts {
		attempts = len(base)
	}

	e.log().Infof("fuzzing %q (%s): %d bits, %d attempts", req.Signal, req.Mode, len(base), attempts)
	res := &FuzzResult{Mode: req.Mode, BaseBits: base}
	for k := 1; k <= attempts; k++ {
		var bits string
		switch req.Mode {
		case FuzzBitFlip:
			bits = flipBits(base, k-1)
		case FuzzRandom:
			count := 1 + e.intn(maxRandomFlips)
			if count > len(base) {
				count = len(base)
			}
			bits = flipBits(base, e.perm(len(base))[:count]...)
		case FuzzIncrement:
			bits = addToBits(base, int64(k))
		}

		a := FuzzAttempt{Attempt: k, Bits: bits}
		seq, err := encoder.PulseWidth(bits, FuzzShortUS, FuzzLongUS)
		if err == nil {
			var out *Outcome
			out, err = e.sendOnce(ctx, sig.FrequencyMHz, seq, FuzzRepeats)
			if out != nil {
				a.Successful = out.Successful
			}
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if err != nil {
			a.Error = err.Error()
		}
		res.Attempts = append(res.Attempts, a)

		if k < attempts {
			if err := e.clock().Sleep(ctx, req.Delay); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

// flipBits inverts the given positions of a 0/1 string
func flipBits(bits string, positions ...int) string {
	b := []byte(bits)
	for _, p := range positions {
		if b[p] == '0' {
			b[p] = '1'
		} else {
			b[p] = '0'
		}
	}
	return string(b)
}

// addToBits treats bits as an unsigned big-endian integer and returns
// bits+k modulo 2^len(bits), zero padded to the same width
func addToBits(bits string, k int64) string {
	n := len(bits)
	v, ok := new(big.Int).SetString(bits, 2)
	if !ok {
		return bits
	}
	v.Add(v, big.NewInt(k))
	mod := new(big.Int).Lsh(big.NewInt(1), uint(n))
	v.Mod(v, mod)

	s := v.Text(2)
	if len(s) < n {
		s = strings.Repeat("0", n-len(s)) + s
	}
	return s
}

// TimingFuzzResult summarizes a timing fuzz run
type TimingFuzzResult struct {
	Iterations int     `json:"iterations"`
	Percent    float64 `json:"fuzz_percentage"`
	Successful int     `json:"successful"`
}

// TimingFuzz replays a stored signal with every duration independently
// scaled by a uniform factor in [1-percent/100, 1+percent/100].
func (e *Engine) TimingFuzz(ctx context.Context, name string, percent float64, iterations int) (*TimingFuzzResult, error) {
	if percent == 0 {
		percent = DefaultTimingPercent
	}
	if percent < 0 || percent >= 100 {
		return nil, fault.Invalid("timing-fuzz", ErrInvalidPercent)
	}
	if iterations <= 0 {
		iterations = DefaultTimingIterations
	}

	sig, err := e.load(name)
	if err != nil {
		return nil, err
	}

	res := &TimingFuzzResult{Iterations: iterations, Percent: percent}
	spread := percent / 100
	for i := 0; i < iterations; i++ {
		seq := e.jitter(sig.Timings, spread)
		out, err := e.sendOnce(ctx, sig.FrequencyMHz, seq, 1)
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if err != nil {
			e.log().Warnf("timing fuzz %d/%d: %v", i+1, iterations, err)
		} else {
			res.Successful += out.Successful
		}
		if i == iterations-1 {
			break
		}
		if err := e.clock().Sleep(ctx, TimingFuzzPause); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (e *Engine) jitter(seq timing.Sequence, spread float64) timing.Sequence {
	out := make(timing.Sequence, len(seq))
	for i, s := range seq {
		v := 1 - spread + 2*spread*e.float64()
		d := uint32(float64(s.DurationUS) * v)
		if d == 0 {
			d = 1
		}
		out[i] = timing.Sample{State: s.State, DurationUS: d}
	}
	return out
}
