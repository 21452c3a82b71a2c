package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/herlein/piflip/pkg/transmit"
)

var (
	txRepeats int
	txPower   string
	txFreq    float64
)

func printOutcome(out *transmit.Outcome) error {
	if jsonOut {
		return printJSON(out)
	}
	fmt.Printf("Sent %d/%d at %.3f MHz, power %s (%d timings)\n",
		out.Successful, out.Requested, out.FrequencyMHz, out.Power, out.TimingCount)
	if out.PowerFallback {
		fmt.Println("  unknown power level, used max")
	}
	for _, e := range out.Errors {
		fmt.Printf("  error: %s\n", e)
	}
	return nil
}

var transmitCmd = &cobra.Command{
	Use:     "transmit <signal>",
	Aliases: []string{"tx"},
	Short:   "Replay a stored signal",
	Args:    cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		e, err := a.engine()
		if err != nil {
			return err
		}
		out, err := e.TransmitSignal(cmd.Context(), args[0], txRepeats, txPower, txFreq)
		if out != nil {
			if perr := printOutcome(out); perr != nil {
				return perr
			}
		}
		return err
	}),
}

var variationsCmd = &cobra.Command{
	Use:   "variations <signal>",
	Short: "Replay a signal across frequency offsets and timing multipliers",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		e, err := a.engine()
		if err != nil {
			return err
		}
		vars, err := e.ReplayVariations(cmd.Context(), args[0], nil, nil)
		if jsonOut && vars != nil {
			if perr := printJSON(vars); perr != nil {
				return perr
			}
		} else {
			for _, v := range vars {
				status := fmt.Sprintf("%d sent", v.Successful)
				if v.Error != "" {
					status = v.Error
				}
				fmt.Printf("%.3f MHz (%+.2f) x%.2f: %s\n", v.FrequencyMHz, v.OffsetMHz, v.Multiplier, status)
			}
		}
		return err
	}),
}

var (
	replayFreq     float64
	replayDuration time.Duration
)

// replaySummary reports how many of the replays reached the air
func replaySummary(sent int) string {
	return fmt.Sprintf("Sent %d of %d replays", sent, transmit.CaptureReplays)
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Capture and immediately replay without saving",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		e, err := a.engine()
		if err != nil {
			return err
		}
		fmt.Printf("Listening %s at %.3f MHz...\n", replayDuration, replayFreq)
		n, err := e.CaptureReplay(cmd.Context(), replayFreq, replayDuration)
		if err != nil {
			return err
		}
		fmt.Println(replaySummary(n))
		return nil
	}),
}

var (
	patternFreq  float64
	patternBitUS uint32
)

var patternCmd = &cobra.Command{
	Use:   "pattern <bits>",
	Short: "Transmit a raw bit string, one level per bit",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		e, err := a.engine()
		if err != nil {
			return err
		}
		out, err := e.SendPattern(cmd.Context(), patternFreq, args[0], patternBitUS)
		if out != nil {
			if perr := printOutcome(out); perr != nil {
				return perr
			}
		}
		return err
	}),
}

func init() {
	f := transmitCmd.Flags()
	f.IntVarP(&txRepeats, "repeats", "r", 10, "transmissions")
	f.StringVarP(&txPower, "power", "p", "max", "power: min, low, medium, high or max")
	f.Float64VarP(&txFreq, "freq", "f", 0, "override the stored frequency in MHz")

	f = replayCmd.Flags()
	f.Float64VarP(&replayFreq, "freq", "f", 433.92, "frequency in MHz")
	f.DurationVarP(&replayDuration, "duration", "t", 3*time.Second, "listening time")

	f = patternCmd.Flags()
	f.Float64VarP(&patternFreq, "freq", "f", 433.92, "frequency in MHz")
	f.Uint32Var(&patternBitUS, "bit-us", transmit.DefaultPatternBit, "bit period in us")

	rootCmd.AddCommand(transmitCmd, variationsCmd, replayCmd, patternCmd)
}
