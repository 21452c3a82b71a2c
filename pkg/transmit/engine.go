// Package transmit replays timing sequences through a transceiver and
// builds the search strategies around it: variations, fuzzing, sweeps,
// jamming patterns, brute force and playlists.
package transmit

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/herlein/piflip/pkg/capture"
	"github.com/herlein/piflip/pkg/clock"
	"github.com/herlein/piflip/pkg/decoder"
	"github.com/herlein/piflip/pkg/fault"
	"github.com/herlein/piflip/pkg/library"
	"github.com/herlein/piflip/pkg/logger"
	"github.com/herlein/piflip/pkg/radio"
	"github.com/herlein/piflip/pkg/timing"
)

// Burst framing
const (
	Preamble  = 500 * time.Microsecond
	RepeatGap = 10 * time.Millisecond
)

// Engine drives transmissions. Signals and Capturer are only needed by the
// by-name and capture-replay operations. A nil Analyzer means decoder.Default.
type Engine struct {
	Radio    *radio.Handle
	Clock    clock.Clock
	Signals  library.Loader
	Capturer *capture.Capturer
	Analyzer decoder.Analyzer
	Log      *logger.Logger

	randMu sync.Mutex
	rand   *rand.Rand
}

// New returns an Engine on the real clock with a time-seeded random source
func New(h *radio.Handle, signals library.Loader, log *logger.Logger) *Engine {
	return &Engine{
		Radio:   h,
		Clock:   clock.Real{},
		Signals: signals,
		Log:     logger.OrNop(log),
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (e *Engine) analyzer() decoder.Analyzer {
	if e.Analyzer == nil {
		return decoder.Default{}
	}
	return e.Analyzer
}

// SetRand replaces the random source used by fuzzing and jamming
func (e *Engine) SetRand(r *rand.Rand) {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	e.rand = r
}

func (e *Engine) intn(n int) int {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	if e.rand == nil {
		e.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e.rand.Intn(n)
}

func (e *Engine) float64() float64 {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	if e.rand == nil {
		e.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e.rand.Float64()
}

func (e *Engine) perm(n int) []int {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	if e.rand == nil {
		e.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e.rand.Perm(n)
}

func (e *Engine) clock() clock.Clock {
	if e.Clock == nil {
		return clock.Real{}
	}
	return e.Clock
}

func (e *Engine) log() *logger.Logger {
	return logger.OrNop(e.Log)
}

// Request is a single transmission. An empty Power means max.
type Request struct {
	FrequencyMHz float64
	Timings      timing.Sequence
	Repeats      int
	Power        string
}

// Outcome tallies a transmission
type Outcome struct {
	FrequencyMHz  float64
	Power         radio.PowerLevel
	PowerFallback bool
	Requested     int
	Successful    int
	TimingCount   int
	Errors        []string
}

func (r Request) validate() error {
	if err := r.Timings.Validate(); err != nil {
		return fault.Invalid("transmit", err)
	}
	if r.Repeats < 1 {
		return fault.Invalid("transmit", ErrInvalidRepeats)
	}
	if err := radio.ValidateFrequency(r.FrequencyMHz); err != nil {
		return fault.Invalid("transmit", err)
	}
	return nil
}

// Transmit sends the timings Repeats times. A failed repeat is tallied and
// the rest still run; only validation, setup and cancellation return an
// error. The radio is idle when Transmit returns.
func (e *Engine) Transmit(ctx context.Context, req Request) (*Outcome, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	power, ok := radio.ParsePowerLevel(req.Power)
	out := &Outcome{
		FrequencyMHz:  req.FrequencyMHz,
		Power:         power,
		PowerFallback: !ok && req.Power != "",
		Requested:     req.Repeats,
		TimingCount:   len(req.Timings),
	}
	if out.PowerFallback {
		e.log().Warnf("unknown power level %q, using %s", req.Power, power)
	}

	clk := e.clock()
	err := e.Radio.Exclusive(ctx, "transmit", func(tr radio.Transceiver) error {
		if err := tr.SetPower(power); err != nil {
			return fault.Hardware("transmit", fmt.Errorf("failed to set power: %w", err))
		}
		if err := tr.SetFrequency(req.FrequencyMHz); err != nil {
			return fault.Hardware("transmit", fmt.Errorf("failed to set frequency: %w", err))
		}

		for i := 0; i < req.Repeats; i++ {
			err := sendBurst(ctx, clk, tr, req.Timings)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				e.log().Warnf("repeat %d/%d failed: %v", i+1, req.Repeats, err)
				out.Errors = append(out.Errors, fmt.Sprintf("repeat %d: %v", i+1, err))
			} else {
				out.Successful++
			}
			if i < req.Repeats-1 {
				if err := tr.Idle(); err != nil {
					e.log().Debugf("idle between repeats: %v", err)
				}
				if err := clk.Sleep(ctx, RepeatGap); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return out, err
	}

	e.log().Debugf("transmitted %d/%d repeats at %.3f MHz (%s)",
		out.Successful, out.Requested, out.FrequencyMHz, out.Power)
	return out, nil
}

// sendBurst keys one copy of the sequence after a high preamble. Without a
// DataWriter the carrier stays on for the burst's total length.
func sendBurst(ctx context.Context, clk clock.Clock, tr radio.Transceiver, seq timing.Sequence) error {
	if err := tr.EnterTX(); err != nil {
		return fmt.Errorf("failed to enter TX: %w", err)
	}

	w, keyed := tr.(radio.DataWriter)
	if !keyed {
		return clk.Sleep(ctx, Preamble+seq.Total())
	}

	if err := w.WritePin(1); err != nil {
		return fmt.Errorf("failed to write preamble: %w", err)
	}
	if err := clk.Sleep(ctx, Preamble); err != nil {
		return err
	}
	for i, s := range seq {
		if err := w.WritePin(s.State); err != nil {
			return fmt.Errorf("failed to write sample %d: %w", i, err)
		}
		if err := clk.Sleep(ctx, s.Duration()); err != nil {
			return err
		}
	}
	return w.WritePin(0)
}
