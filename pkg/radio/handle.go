package radio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/herlein/piflip/pkg/fault"
	"github.com/herlein/piflip/pkg/logger"
)

// Handle owns a Transceiver and serializes access to it. Every operation
// runs through Exclusive, which leaves the radio idle on return.
type Handle struct {
	mu      sync.Mutex
	tr      Transceiver
	log     *logger.Logger
	stateMu sync.Mutex
	closed  bool
}

// NewHandle wraps tr. A nil logger discards output.
func NewHandle(tr Transceiver, log *logger.Logger) *Handle {
	return &Handle{tr: tr, log: logger.OrNop(log)}
}

// Exclusive runs fn with sole access to the transceiver. A concurrent call
// fails immediately with ErrBusy instead of waiting. The radio is put back
// to idle after fn returns, whatever the outcome.
func (h *Handle) Exclusive(ctx context.Context, op string, fn func(Transceiver) error) (err error) {
	if !h.mu.TryLock() {
		return fault.New(fault.Busy, op, ErrBusy)
	}
	defer h.mu.Unlock()

	if h.isClosed() {
		return fault.Hardware(op, ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	defer func() {
		if idleErr := h.tr.Idle(); idleErr != nil {
			h.log.Warnf("%s: failed to idle radio: %v", op, idleErr)
			if err == nil {
				err = fault.Hardware(op, fmt.Errorf("failed to idle radio: %w", idleErr))
			}
		}
	}()

	return fn(h.tr)
}

func (h *Handle) isClosed() bool {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	return h.closed
}

// Close idles the radio and releases the driver. It waits for any running
// operation to finish.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stateMu.Lock()
	if h.closed {
		h.stateMu.Unlock()
		return nil
	}
	h.closed = true
	h.stateMu.Unlock()

	idleErr := h.tr.Idle()
	closeErr := h.tr.Close()
	return errors.Join(idleErr, closeErr)
}
