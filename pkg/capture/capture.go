// Package capture records raw OOK timing sequences from a transceiver by
// polling its data line at a fixed interval.
package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/herlein/piflip/pkg/clock"
	"github.com/herlein/piflip/pkg/fault"
	"github.com/herlein/piflip/pkg/library"
	"github.com/herlein/piflip/pkg/logger"
	"github.com/herlein/piflip/pkg/radio"
	"github.com/herlein/piflip/pkg/timing"
)

// DefaultInterval is the 100 kHz pin sampling period
const DefaultInterval = 10 * time.Microsecond

// Retry policy
const (
	DefaultAttempts     = 3
	RetryPause          = 500 * time.Millisecond
	GoodTransitions     = 1000
	GoodRSSI            = -70.0
	rssiQualityBaseline = 100.0
)

var (
	// ErrInvalidDuration indicates a non-positive capture duration
	ErrInvalidDuration = errors.New("capture duration must be positive")
)

// Result is one completed capture
type Result struct {
	ID           string
	Timings      timing.Sequence
	RSSI         float64
	FrequencyMHz float64
	Duration     time.Duration
	SampleCount  int
	StartedAt    time.Time
	Attempt      int
}

// Quality scores a capture by its transition count plus RSSI above -100 dBm
func (r *Result) Quality() float64 {
	return float64(len(r.Timings)) + (r.RSSI + rssiQualityBaseline)
}

// Good reports whether the capture clears the early-exit bar of the retry loop
func (r *Result) Good() bool {
	return len(r.Timings) > GoodTransitions && r.RSSI > GoodRSSI
}

// Signal converts the capture into a library record
func (r *Result) Signal(name string) *library.Signal {
	return &library.Signal{
		Name:         name,
		FrequencyMHz: r.FrequencyMHz,
		Timings:      r.Timings.Clone(),
		RSSI:         r.RSSI,
		DurationS:    r.Duration.Seconds(),
		SampleCount:  r.SampleCount,
		Modulation:   library.ModulationOOK,
		CreatedAt:    r.StartedAt,
	}
}

// Capturer samples the transceiver data pin. The zero Interval means DefaultInterval.
type Capturer struct {
	Radio    *radio.Handle
	Clock    clock.Clock
	Interval time.Duration
	Log      *logger.Logger
}

// New returns a Capturer with default pacing on the real clock
func New(h *radio.Handle, log *logger.Logger) *Capturer {
	return &Capturer{Radio: h, Clock: clock.Real{}, Interval: DefaultInterval, Log: logger.OrNop(log)}
}

func (c *Capturer) interval() time.Duration {
	if c.Interval <= 0 {
		return DefaultInterval
	}
	return c.Interval
}

func (c *Capturer) clock() clock.Clock {
	if c.Clock == nil {
		return clock.Real{}
	}
	return c.Clock
}

func (c *Capturer) log() *logger.Logger {
	return logger.OrNop(c.Log)
}

// Capture tunes to freqMHz, records for duration and returns the run-length
// encoded timings. The radio is idle again when Capture returns.
func (c *Capturer) Capture(ctx context.Context, duration time.Duration, freqMHz float64) (*Result, error) {
	if duration <= 0 {
		return nil, fault.Invalid("capture", ErrInvalidDuration)
	}
	if err := radio.ValidateFrequency(freqMHz); err != nil {
		return nil, fault.Invalid("capture", err)
	}

	interval := c.interval()
	n := int(duration / interval)
	if n < 1 {
		n = 1
	}
	clk := c.clock()

	res := &Result{
		ID:           uuid.NewString(),
		FrequencyMHz: freqMHz,
		Duration:     duration,
		StartedAt:    clk.Now(),
	}

	err := c.Radio.Exclusive(ctx, "capture", func(tr radio.Transceiver) error {
		if err := tr.SetFrequency(freqMHz); err != nil {
			return fault.Hardware("capture", fmt.Errorf("failed to set frequency: %w", err))
		}
		if err := tr.EnterRX(); err != nil {
			return fault.Hardware("capture", fmt.Errorf("failed to enter RX: %w", err))
		}

		c.log().Debugf("capturing %d samples at %.3f MHz", n, freqMHz)
		reads := make([]uint8, 0, n)
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := tr.ReadPin()
			if err != nil {
				return fault.Hardware("capture", fmt.Errorf("failed to read data pin: %w", err))
			}
			reads = append(reads, v)
			if err := clk.Sleep(ctx, interval); err != nil {
				return err
			}
		}

		rssi, err := tr.ReadRSSI()
		if err != nil {
			return fault.Hardware("capture", fmt.Errorf("failed to read RSSI: %w", err))
		}
		res.RSSI = rssi
		res.SampleCount = len(reads)
		res.Timings = timing.FromSamples(reads, interval)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log().Infof("captured %d transitions at %.3f MHz, RSSI %.1f dBm", len(res.Timings), freqMHz, res.RSSI)
	return res, nil
}

// CaptureWithRetry captures up to maxAttempts times and keeps the best by
// Quality, stopping early on a Good capture. Poor quality is never an error;
// it fails only when no attempt succeeded.
func (c *Capturer) CaptureWithRetry(ctx context.Context, duration time.Duration, freqMHz float64, maxAttempts int) (*Result, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var best *Result
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err := c.Capture(ctx, duration, freqMHz)
		switch {
		case err == nil:
			res.Attempt = attempt
			c.log().Infof("attempt %d/%d: %d transitions, RSSI %.1f dBm, quality %.1f",
				attempt, maxAttempts, len(res.Timings), res.RSSI, res.Quality())
			if best == nil || res.Quality() > best.Quality() {
				best = res
			}
			if res.Good() {
				return best, nil
			}
		case fault.Is(err, fault.InvalidInput):
			return nil, err
		case ctx.Err() != nil:
			if best != nil {
				return best, nil
			}
			return nil, err
		default:
			c.log().Warnf("attempt %d/%d failed: %v", attempt, maxAttempts, err)
			lastErr = err
		}

		if attempt < maxAttempts {
			if err := c.clock().Sleep(ctx, RetryPause); err != nil {
				if best != nil {
					return best, nil
				}
				return nil, err
			}
		}
	}

	if best == nil {
		return nil, lastErr
	}
	return best, nil
}
