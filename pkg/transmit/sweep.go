package transmit

import (
	"context"
	"math"
	"time"

	"github.com/herlein/piflip/pkg/fault"
	"github.com/herlein/piflip/pkg/radio"
)

// Sweep defaults
const (
	DefaultSweepStep    = 0.05
	DefaultSweepDelay   = 500 * time.Millisecond
	DefaultSweepRepeats = 3
	MinSweepStep        = 0.001
)

// SweepRequest replays a stored signal at each frequency from StartMHz to
// EndMHz inclusive. Zero step, delay and repeats take the defaults.
type SweepRequest struct {
	Signal   string
	StartMHz float64
	EndMHz   float64
	StepMHz  float64
	Delay    time.Duration
	Repeats  int
}

// SweepPoint is the outcome at one frequency
type SweepPoint struct {
	FrequencyMHz float64 `json:"frequency"`
	Successful   int     `json:"successful"`
	Error        string  `json:"error,omitempty"`
}

// Frequencies lists the sweep points. Values are rounded to 1 kHz so
// accumulated float error cannot drop the end point; steps below
// MinSweepStep would repeat points and are rejected by FrequencySweep.
func (r SweepRequest) Frequencies() []float64 {
	step := r.StepMHz
	if step <= 0 {
		step = DefaultSweepStep
	}
	var out []float64
	for i := 0; ; i++ {
		f := math.Round((r.StartMHz+float64(i)*step)*1000) / 1000
		if f > r.EndMHz+1e-9 {
			break
		}
		out = append(out, f)
	}
	return out
}

// FrequencySweep transmits the signal at every frequency in the range. A
// failure at one frequency is recorded and the sweep continues.
func (e *Engine) FrequencySweep(ctx context.Context, req SweepRequest) ([]SweepPoint, error) {
	if req.StepMHz == 0 {
		req.StepMHz = DefaultSweepStep
	}
	if req.StepMHz < MinSweepStep || req.StartMHz > req.EndMHz {
		return nil, fault.Invalid("sweep", ErrInvalidSweep)
	}
	for _, f := range []float64{req.StartMHz, req.EndMHz} {
		if err := radio.ValidateFrequency(f); err != nil {
			return nil, fault.Invalid("sweep", err)
		}
	}
	if req.Delay <= 0 {
		req.Delay = DefaultSweepDelay
	}
	if req.Repeats <= 0 {
		req.Repeats = DefaultSweepRepeats
	}

	sig, err := e.load(req.Signal)
	if err != nil {
		return nil, err
	}

	freqs := req.Frequencies()
	e.log().Infof("sweeping %q over %d frequencies %.3f-%.3f MHz", req.Signal, len(freqs), req.StartMHz, req.EndMHz)
	points := make([]SweepPoint, 0, len(freqs))
	for i, f := range freqs {
		p := SweepPoint{FrequencyMHz: f}
		out, err := e.sendOnce(ctx, f, sig.Timings, req.Repeats)
		if ctx.Err() != nil {
			return points, ctx.Err()
		}
		if err != nil {
			p.Error = err.Error()
		} else {
			p.Successful = out.Successful
		}
		points = append(points, p)

		if i < len(freqs)-1 {
			if err := e.clock().Sleep(ctx, req.Delay); err != nil {
				return points, err
			}
		}
	}
	return points, nil
}
