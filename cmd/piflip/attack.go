package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/herlein/piflip/pkg/transmit"
)

var (
	fuzzMode     string
	fuzzAttempts int
	fuzzDelay    time.Duration
)

var fuzzCmd = &cobra.Command{
	Use:   "fuzz <signal>",
	Short: "Transmit mutated versions of a decoded code",
	Long: `Fuzz decodes a stored signal into bits and sends variants of them.

Modes:
  bit_flip   invert one bit per attempt, left to right
  random     invert 1-5 random bits
  increment  count up from the captured code`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		mode, err := transmit.ParseFuzzMode(fuzzMode)
		if err != nil {
			return err
		}
		e, err := a.engine()
		if err != nil {
			return err
		}
		res, err := e.Fuzz(cmd.Context(), transmit.FuzzRequest{
			Signal:      args[0],
			Mode:        mode,
			MaxAttempts: fuzzAttempts,
			Delay:       fuzzDelay,
		})
		if res == nil {
			return err
		}
		if jsonOut {
			if perr := printJSON(res); perr != nil {
				return perr
			}
			return err
		}
		fmt.Printf("Base code: %s (%d bits)\n", res.BaseBits, len(res.BaseBits))
		for _, at := range res.Attempts {
			status := "sent"
			if at.Error != "" {
				status = at.Error
			}
			fmt.Printf("  %4d  %s  %s\n", at.Attempt, at.Bits, status)
		}
		return err
	}),
}

var (
	tfuzzPercent    float64
	tfuzzIterations int
)

var timingFuzzCmd = &cobra.Command{
	Use:   "timing-fuzz <signal>",
	Short: "Replay a signal with randomly jittered durations",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		e, err := a.engine()
		if err != nil {
			return err
		}
		res, err := e.TimingFuzz(cmd.Context(), args[0], tfuzzPercent, tfuzzIterations)
		if res == nil {
			return err
		}
		if jsonOut {
			if perr := printJSON(res); perr != nil {
				return perr
			}
			return err
		}
		fmt.Printf("Sent %d/%d iterations at +/-%.0f%%\n", res.Successful, res.Iterations, res.Percent)
		return err
	}),
}

var sweepReq transmit.SweepRequest

var sweepCmd = &cobra.Command{
	Use:   "sweep <signal>",
	Short: "Replay a signal across a frequency range",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		e, err := a.engine()
		if err != nil {
			return err
		}
		req := sweepReq
		req.Signal = args[0]
		points, err := e.FrequencySweep(cmd.Context(), req)
		if jsonOut && points != nil {
			if perr := printJSON(points); perr != nil {
				return perr
			}
			return err
		}
		for _, p := range points {
			status := fmt.Sprintf("%d sent", p.Successful)
			if p.Error != "" {
				status = p.Error
			}
			fmt.Printf("%.3f MHz: %s\n", p.FrequencyMHz, status)
		}
		return err
	}),
}

var (
	jamFreq     float64
	jamDuration time.Duration
	jamMode     string
	jamPower    string
)

var jamCmd = &cobra.Command{
	Use:   "jam",
	Short: "Transmit an interference pattern (lab use only)",
	Long: `Jam keys the carrier with a noise, tone, sweep or pulse pattern for the
given duration. Jamming is illegal outside shielded test setups in most
jurisdictions.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		mode, err := transmit.ParseJamMode(jamMode)
		if err != nil {
			return err
		}
		e, err := a.engine()
		if err != nil {
			return err
		}
		res, err := e.Jam(cmd.Context(), transmit.JamRequest{
			FrequencyMHz: jamFreq,
			Duration:     jamDuration,
			Mode:         mode,
			Power:        jamPower,
		})
		if res == nil {
			return err
		}
		if jsonOut {
			if perr := printJSON(res); perr != nil {
				return perr
			}
			return err
		}
		fmt.Printf("Jammed %.3f MHz with %s for %s (%d bursts)\n",
			res.FrequencyMHz, res.Mode, res.Elapsed.Round(time.Millisecond), res.Bursts)
		return err
	}),
}

var bruteReq transmit.BruteForceRequest

var bruteForceCmd = &cobra.Command{
	Use:   "bruteforce",
	Short: "Send every code of a short fixed-length keyspace",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		e, err := a.engine()
		if err != nil {
			return err
		}
		res, err := e.BruteForce(cmd.Context(), bruteReq)
		if res == nil {
			return err
		}
		if jsonOut {
			if perr := printJSON(res); perr != nil {
				return perr
			}
			return err
		}
		fmt.Printf("Sent %d of %d codes\n", res.Sent, res.Total)
		return err
	}),
}

func init() {
	f := fuzzCmd.Flags()
	f.StringVarP(&fuzzMode, "mode", "m", string(transmit.FuzzBitFlip), "bit_flip, random or increment")
	f.IntVarP(&fuzzAttempts, "attempts", "n", transmit.DefaultFuzzAttempts, "maximum attempts")
	f.DurationVar(&fuzzDelay, "delay", transmit.DefaultFuzzDelay, "pause between attempts")

	f = timingFuzzCmd.Flags()
	f.Float64Var(&tfuzzPercent, "percent", transmit.DefaultTimingPercent, "maximum jitter in percent")
	f.IntVarP(&tfuzzIterations, "iterations", "n", transmit.DefaultTimingIterations, "transmissions")

	f = sweepCmd.Flags()
	f.Float64Var(&sweepReq.StartMHz, "start", 433.0, "first frequency in MHz")
	f.Float64Var(&sweepReq.EndMHz, "end", 434.0, "last frequency in MHz")
	f.Float64Var(&sweepReq.StepMHz, "step", transmit.DefaultSweepStep, "step in MHz")
	f.DurationVar(&sweepReq.Delay, "delay", transmit.DefaultSweepDelay, "pause between frequencies")
	f.IntVarP(&sweepReq.Repeats, "repeats", "r", transmit.DefaultSweepRepeats, "transmissions per frequency")

	f = jamCmd.Flags()
	f.Float64VarP(&jamFreq, "freq", "f", 433.92, "frequency in MHz")
	f.DurationVarP(&jamDuration, "duration", "t", 10*time.Second, "jamming time")
	f.StringVarP(&jamMode, "mode", "m", string(transmit.JamNoise), "noise, tone, sweep or pulse")
	f.StringVarP(&jamPower, "power", "p", "max", "power level")

	f = bruteForceCmd.Flags()
	f.Float64VarP(&bruteReq.FrequencyMHz, "freq", "f", 433.92, "frequency in MHz")
	f.IntVarP(&bruteReq.Bits, "bits", "b", 8, "code length, at most 16")
	f.DurationVar(&bruteReq.Delay, "delay", transmit.DefaultBruteForceGap, "pause between codes")

	rootCmd.AddCommand(fuzzCmd, timingFuzzCmd, sweepCmd, jamCmd, bruteForceCmd)
}
