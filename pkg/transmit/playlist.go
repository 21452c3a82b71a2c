package transmit

import (
	"context"
	"errors"

	"github.com/herlein/piflip/pkg/library"
)

// Step outcome values
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusComplete = "complete"
)

// StepResult is the outcome of one playlist entry
type StepResult struct {
	Step    int    `json:"step"`
	Signal  string `json:"signal"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Repeats int    `json:"repeats,omitempty"`
}

// PlaylistResult summarizes a playlist run
type PlaylistResult struct {
	Status     string       `json:"status"`
	TotalSteps int          `json:"total_steps"`
	Executed   int          `json:"executed"`
	Steps      []StepResult `json:"steps"`
}

// RunPlaylist transmits each step in order. A step whose signal is missing
// or empty is recorded as an error and the run moves on without waiting;
// the step delay follows only successful steps that are not the last.
func (e *Engine) RunPlaylist(ctx context.Context, steps []library.Step) (*PlaylistResult, error) {
	res := &PlaylistResult{Status: StatusComplete, TotalSteps: len(steps)}

	for i, step := range steps {
		r := StepResult{Step: i + 1, Signal: step.Signal}
		e.log().Infof("step %d/%d: %s", i+1, len(steps), step.Signal)

		sig, err := e.load(step.Signal)
		switch {
		case errors.Is(err, library.ErrNotFound):
			r.Status, r.Message = StatusError, "signal not found"
		case errors.Is(err, library.ErrNoTimings):
			r.Status, r.Message = StatusError, "no timing data"
		case err != nil:
			r.Status, r.Message = StatusError, err.Error()
		}
		if err != nil {
			res.Steps = append(res.Steps, r)
			continue
		}

		freq := sig.FrequencyMHz
		if step.FrequencyMHz != 0 {
			freq = step.FrequencyMHz
		}
		out, err := e.Transmit(ctx, Request{FrequencyMHz: freq, Timings: sig.Timings, Repeats: step.RepeatCount()})
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if err != nil {
			r.Status, r.Message = StatusError, err.Error()
			res.Steps = append(res.Steps, r)
			continue
		}

		r.Status, r.Repeats = StatusSuccess, out.Requested
		res.Steps = append(res.Steps, r)
		res.Executed++

		if d := step.DelayDuration(); d > 0 && i < len(steps)-1 {
			if err := e.clock().Sleep(ctx, d); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}
