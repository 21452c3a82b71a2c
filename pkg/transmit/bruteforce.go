package transmit

import (
	"context"
	"fmt"
	"time"

	"github.com/herlein/piflip/pkg/encoder"
	"github.com/herlein/piflip/pkg/fault"
	"github.com/herlein/piflip/pkg/radio"
)

// Brute force limits
const (
	MaxBruteForceBits    = 16
	BruteForceHalfUS     = 500
	DefaultBruteForceGap = 100 * time.Millisecond
)

// BruteForceRequest enumerates every code of Bits width
type BruteForceRequest struct {
	FrequencyMHz float64
	Bits         int
	Delay        time.Duration
}

// BruteForceResult reports progress; Sent is less than Total when cancelled
type BruteForceResult struct {
	Sent  int `json:"codes_transmitted"`
	Total int `json:"total_codes"`
}

// BruteForce transmits codes 0 through 2^Bits-1 once each, biphase encoded.
// Widths above 16 bits are rejected before anything is sent.
func (e *Engine) BruteForce(ctx context.Context, req BruteForceRequest) (*BruteForceResult, error) {
	if req.Bits < 1 || req.Bits > MaxBruteForceBits {
		return nil, fault.Invalid("bruteforce", ErrInvalidBitLength)
	}
	if err := radio.ValidateFrequency(req.FrequencyMHz); err != nil {
		return nil, fault.Invalid("bruteforce", err)
	}
	if req.Delay <= 0 {
		req.Delay = DefaultBruteForceGap
	}

	res := &BruteForceResult{Total: 1 << req.Bits}
	e.log().Warnf("brute forcing %d codes at %.3f MHz, about %s", res.Total, req.FrequencyMHz,
		(time.Duration(res.Total) * req.Delay).Round(time.Second))

	for code := 0; code < res.Total; code++ {
		bits := fmt.Sprintf("%0*b", req.Bits, code)
		seq, err := encoder.Biphase(bits, BruteForceHalfUS)
		if err != nil {
			return res, err
		}
		if _, err := e.sendOnce(ctx, req.FrequencyMHz, seq, 1); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			e.log().Warnf("code %s: %v", bits, err)
		}
		res.Sent++
		if code%100 == 0 {
			e.log().Infof("progress %d/%d", code, res.Total)
		}
		if code == res.Total-1 {
			break
		}
		if err := e.clock().Sleep(ctx, req.Delay); err != nil {
			return res, err
		}
	}
	return res, nil
}
