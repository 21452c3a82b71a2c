package transmit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/herlein/piflip/pkg/fault"
	"github.com/herlein/piflip/pkg/radio"
	"github.com/herlein/piflip/pkg/timing"
)

// JamMode selects the interference pattern
type JamMode string

const (
	JamNoise JamMode = "noise"
	JamTone  JamMode = "tone"
	JamSweep JamMode = "sweep"
	JamPulse JamMode = "pulse"
)

// Jam pattern shapes
const (
	noiseSamples   = 100
	noiseMinUS     = 50
	noiseMaxUS     = 500
	toneUS         = 100000
	tonePause      = 50 * time.Millisecond
	sweepBurstUS   = 10000
	sweepMaxOffset = 95
	sweepOffsetInc = 5
	pulseUS        = 500
	longJamWarning = 60 * time.Second
)

// ParseJamMode validates a pattern name
func ParseJamMode(s string) (JamMode, error) {
	switch m := JamMode(strings.ToLower(s)); m {
	case JamNoise, JamTone, JamSweep, JamPulse:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidJamMode, s)
}

// JamRequest keys an interference pattern for Duration
type JamRequest struct {
	FrequencyMHz float64
	Duration     time.Duration
	Mode         JamMode
	Power        string
}

// JamResult reports what a jam run sent
type JamResult struct {
	FrequencyMHz float64       `json:"frequency"`
	Mode         JamMode       `json:"pattern"`
	Elapsed      time.Duration `json:"duration"`
	Bursts       int           `json:"bursts"`
}

// Jam transmits the chosen pattern in a loop until Duration of wall-clock
// time has passed or ctx is cancelled. Only use this against equipment you
// own, inside a shielded enclosure.
func (e *Engine) Jam(ctx context.Context, req JamRequest) (*JamResult, error) {
	if _, err := ParseJamMode(string(req.Mode)); err != nil {
		return nil, fault.Invalid("jam", err)
	}
	if req.Duration <= 0 {
		return nil, fault.Invalid("jam", fmt.Errorf("duration must be positive"))
	}
	if err := radio.ValidateFrequency(req.FrequencyMHz); err != nil {
		return nil, fault.Invalid("jam", err)
	}
	if req.Mode == JamSweep {
		top := req.FrequencyMHz + float64(sweepMaxOffset)/100
		if err := radio.ValidateFrequency(top); err != nil {
			return nil, fault.Invalid("jam", fmt.Errorf("sweep leaves the band: %w", err))
		}
	}
	if req.Power == "" {
		req.Power = radio.PowerMax.String()
	}

	e.log().Warnf("JAMMING %.3f MHz for %s with %s pattern", req.FrequencyMHz, req.Duration, req.Mode)
	if req.Duration > longJamWarning {
		e.log().Warnf("jam duration %s exceeds %s", req.Duration, longJamWarning)
	}

	clk := e.clock()
	start := clk.Now()
	res := &JamResult{FrequencyMHz: req.FrequencyMHz, Mode: req.Mode}
	done := func() bool { return clk.Now().Sub(start) >= req.Duration }

	send := func(freq float64, seq timing.Sequence) error {
		out, err := e.Transmit(ctx, Request{FrequencyMHz: freq, Timings: seq, Repeats: 1, Power: req.Power})
		if out != nil {
			res.Bursts += out.Successful
		}
		return err
	}

	var err error
loop:
	for !done() {
		switch req.Mode {
		case JamNoise:
			err = send(req.FrequencyMHz, e.noise())
		case JamTone:
			if err = send(req.FrequencyMHz, timing.Sequence{timing.High(toneUS)}); err == nil {
				err = clk.Sleep(ctx, tonePause)
			}
		case JamSweep:
			for off := 0; off <= sweepMaxOffset && !done(); off += sweepOffsetInc {
				f := req.FrequencyMHz + float64(off)/100
				if err = send(f, timing.Sequence{timing.High(sweepBurstUS)}); err != nil {
					break
				}
			}
		case JamPulse:
			err = send(req.FrequencyMHz, timing.Sequence{timing.High(pulseUS), timing.Low(pulseUS)})
		}
		if err != nil {
			break loop
		}
	}

	res.Elapsed = clk.Now().Sub(start)
	if err != nil {
		return res, err
	}
	e.log().Infof("jam finished after %s, %d bursts", res.Elapsed.Round(time.Millisecond), res.Bursts)
	return res, nil
}

// noise builds one burst of random on/off samples
func (e *Engine) noise() timing.Sequence {
	seq := make(timing.Sequence, noiseSamples)
	for i := range seq {
		seq[i] = timing.Sample{
			State:      uint8(e.intn(2)),
			DurationUS: uint32(noiseMinUS + e.intn(noiseMaxUS-noiseMinUS+1)),
		}
	}
	return seq
}
