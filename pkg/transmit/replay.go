package transmit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/herlein/piflip/pkg/encoder"
	"github.com/herlein/piflip/pkg/fault"
	"github.com/herlein/piflip/pkg/library"
	"github.com/herlein/piflip/pkg/radio"
	"github.com/herlein/piflip/pkg/timing"
)

// Replay defaults
const (
	VariationRepeats  = 3
	VariationPause    = 500 * time.Millisecond
	CaptureReplays    = 5
	CaptureReplayGap  = 500 * time.Millisecond
	PatternRepeats    = 3
	DefaultPatternBit = 500
)

// Frequency offsets in MHz and timing multipliers tried by ReplayVariations
var (
	VariationOffsets     = []float64{-0.5, -0.25, 0, 0.25, 0.5}
	VariationMultipliers = []float64{0.95, 1.0, 1.05}
)

// load fetches a stored signal and checks it has timings
func (e *Engine) load(name string) (*library.Signal, error) {
	if e.Signals == nil {
		return nil, fault.Invalid("load", ErrNoLoader)
	}
	sig, err := e.Signals.Load(name)
	if errors.Is(err, library.ErrNotFound) {
		return nil, fault.New(fault.InsufficientData, "load", err)
	}
	if err != nil {
		return nil, err
	}
	if len(sig.Timings) == 0 {
		return nil, fault.New(fault.InsufficientData, "load", fmt.Errorf("signal %q: %w", name, library.ErrNoTimings))
	}
	return sig, nil
}

// TransmitSignal replays a stored signal. A non-zero freqMHz overrides the
// frequency it was captured at.
func (e *Engine) TransmitSignal(ctx context.Context, name string, repeats int, power string, freqMHz float64) (*Outcome, error) {
	sig, err := e.load(name)
	if err != nil {
		return nil, err
	}
	if freqMHz == 0 {
		freqMHz = sig.FrequencyMHz
	}
	return e.Transmit(ctx, Request{
		FrequencyMHz: freqMHz,
		Timings:      sig.Timings,
		Repeats:      repeats,
		Power:        power,
	})
}

// Variation is one attempt of ReplayVariations
type Variation struct {
	FrequencyMHz float64 `json:"frequency"`
	OffsetMHz    float64 `json:"offset"`
	Multiplier   float64 `json:"timing_mult"`
	Successful   int     `json:"successful"`
	Error        string  `json:"error,omitempty"`
}

// ReplayVariations replays a stored signal across every frequency offset
// and timing multiplier combination at max power. Nil slices take
// VariationOffsets and VariationMultipliers. Offsets that leave the
// supported bands are recorded as failed.
func (e *Engine) ReplayVariations(ctx context.Context, name string, offsets, multipliers []float64) ([]Variation, error) {
	if offsets == nil {
		offsets = VariationOffsets
	}
	if multipliers == nil {
		multipliers = VariationMultipliers
	}
	sig, err := e.load(name)
	if err != nil {
		return nil, err
	}

	total := len(offsets) * len(multipliers)
	results := make([]Variation, 0, total)
	for _, offset := range offsets {
		for _, mult := range multipliers {
			v := Variation{
				FrequencyMHz: sig.FrequencyMHz + offset,
				OffsetMHz:    offset,
				Multiplier:   mult,
			}
			out, err := e.sendOnce(ctx, v.FrequencyMHz, sig.Timings.Scale(mult), VariationRepeats)
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			if err != nil {
				v.Error = err.Error()
			} else {
				v.Successful = out.Successful
			}
			results = append(results, v)
			e.log().Infof("variation %d/%d: %+.2f MHz x%.2f", len(results), total, offset, mult)

			if len(results) < total {
				if err := e.clock().Sleep(ctx, VariationPause); err != nil {
					return results, err
				}
			}
		}
	}
	return results, nil
}

// CaptureReplay records whatever is on the air for duration and immediately
// replays it CaptureReplays times, for rolling-code receivers that accept a
// code that was never delivered.
func (e *Engine) CaptureReplay(ctx context.Context, freqMHz float64, duration time.Duration) (int, error) {
	if e.Capturer == nil {
		return 0, fault.Invalid("capture-replay", ErrNoCapturer)
	}
	res, err := e.Capturer.Capture(ctx, duration, freqMHz)
	if err != nil {
		return 0, err
	}
	if len(res.Timings) == 0 {
		return 0, fault.New(fault.InsufficientData, "capture-replay", ErrNothingCaptured)
	}

	e.log().Infof("captured %d transitions, replaying %d times", len(res.Timings), CaptureReplays)
	sent := 0
	for i := 0; i < CaptureReplays; i++ {
		out, err := e.sendOnce(ctx, freqMHz, res.Timings, 1)
		if err != nil {
			return sent, err
		}
		sent += out.Successful
		if i == CaptureReplays-1 {
			break
		}
		if err := e.clock().Sleep(ctx, CaptureReplayGap); err != nil {
			return sent, err
		}
	}
	return sent, nil
}

// SendPattern keys a literal bit string, one bitUS sample per bit. A zero
// bitUS means DefaultPatternBit.
func (e *Engine) SendPattern(ctx context.Context, freqMHz float64, bits string, bitUS uint32) (*Outcome, error) {
	if bitUS == 0 {
		bitUS = DefaultPatternBit
	}
	seq, err := encoder.Raw(bits, bitUS)
	if err != nil {
		return nil, fault.Invalid("pattern", err)
	}
	return e.sendOnce(ctx, freqMHz, seq, PatternRepeats)
}

// sendOnce transmits seq at max power with the given repeat count
func (e *Engine) sendOnce(ctx context.Context, freqMHz float64, seq timing.Sequence, repeats int) (*Outcome, error) {
	return e.Transmit(ctx, Request{
		FrequencyMHz: freqMHz,
		Timings:      seq,
		Repeats:      repeats,
		Power:        radio.PowerMax.String(),
	})
}
