package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/herlein/piflip/pkg/clock"
	"github.com/herlein/piflip/pkg/fault"
	"github.com/herlein/piflip/pkg/logger"
	"github.com/herlein/piflip/pkg/radio"
)

// Scanner measures RSSI across a frequency range
type Scanner struct {
	Radio *radio.Handle
	Clock clock.Clock
	Log   *logger.Logger

	// Tracker, when set, is fed every sweep made by Monitor
	Tracker *SignalTracker
}

// New creates a Scanner on the real clock
func New(h *radio.Handle, log *logger.Logger) *Scanner {
	return &Scanner{Radio: h, Clock: clock.Real{}, Log: logger.OrNop(log)}
}

// Scan sweeps the range once and returns every frequency whose RSSI
// exceeds the threshold, in sweep order.
func (s *Scanner) Scan(ctx context.Context, cfg Config) ([]Hit, error) {
	sw, err := s.SweepOnce(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return sw.Hits, nil
}

// SweepOnce is Scan keeping every reading, not only the hits
func (s *Scanner) SweepOnce(ctx context.Context, cfg Config) (*Sweep, error) {
	const op = "scan"
	if err := cfg.Validate(); err != nil {
		return nil, fault.Invalid(op, err)
	}
	log := logger.OrNop(s.Log)
	freqs := cfg.Frequencies()
	sw := &Sweep{Timestamp: s.Clock.Now()}

	log.Debugf("scanning %d frequencies %.3f-%.3f MHz, threshold %.1f dBm",
		len(freqs), cfg.StartMHz, cfg.EndMHz, cfg.ThresholdDBm)

	err := s.Radio.Exclusive(ctx, op, func(tr radio.Transceiver) error {
		for _, f := range freqs {
			rssi, err := s.measure(ctx, tr, f, cfg.Dwell)
			if err != nil {
				return err
			}
			r := Hit{FrequencyMHz: f, RSSI: rssi}
			sw.Readings = append(sw.Readings, r)
			if rssi > cfg.ThresholdDBm {
				log.Debugf("%.3f MHz = %.1f dBm", f, rssi)
				sw.Hits = append(sw.Hits, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sw, nil
}

// measure tunes, enters RX and reads RSSI after the dwell
func (s *Scanner) measure(ctx context.Context, tr radio.Transceiver, mhz float64, dwell time.Duration) (float64, error) {
	if err := tr.SetFrequency(mhz); err != nil {
		return 0, fault.Hardware("scan", fmt.Errorf("failed to set frequency %.3f MHz: %w", mhz, err))
	}
	if err := tr.EnterRX(); err != nil {
		return 0, fault.Hardware("scan", fmt.Errorf("failed to enter RX: %w", err))
	}
	if err := s.Clock.Sleep(ctx, dwell); err != nil {
		return 0, err
	}
	rssi, err := tr.ReadRSSI()
	if err != nil {
		return 0, fault.Hardware("scan", fmt.Errorf("failed to read RSSI: %w", err))
	}
	return rssi, nil
}

// Monitor sweeps repeatedly until ctx is done, feeding the tracker with
// the peak of each sweep. fn, if not nil, sees every sweep. A busy radio
// skips the sweep; any other failure stops the loop.
func (s *Scanner) Monitor(ctx context.Context, cfg Config, interval time.Duration, fn func(*Sweep)) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	log := logger.OrNop(s.Log)
	for {
		sw, err := s.SweepOnce(ctx, cfg)
		switch {
		case ctx.Err() != nil:
			return nil
		case fault.Is(err, fault.Busy):
			log.Debugf("radio busy, skipping sweep")
		case err != nil:
			return err
		default:
			if s.Tracker != nil {
				s.Tracker.Update(sw)
			}
			if fn != nil {
				fn(sw)
			}
		}
		if err := s.Clock.Sleep(ctx, interval); err != nil {
			return nil
		}
	}
}
