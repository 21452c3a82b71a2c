package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/herlein/piflip/pkg/capture"
	"github.com/herlein/piflip/pkg/decoder"
)

var (
	captureFreq     float64
	captureDuration time.Duration
	captureAttempts int
	captureName     string
	captureSave     bool
	captureDecode   bool
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record a remote as run-length timings",
	Long: `Capture samples the radio data line for the given duration and stores the
run-length timings in the captures directory. With --attempts above 1 the
best of several recordings is kept, stopping early on a strong capture.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		h, err := a.openRadio()
		if err != nil {
			return err
		}
		if err := a.openStores(); err != nil {
			return err
		}

		c := capture.New(h, a.log.With("capture"))
		fmt.Printf("Capturing %s at %.3f MHz...\n", captureDuration, captureFreq)
		res, err := c.CaptureWithRetry(cmd.Context(), captureDuration, captureFreq, captureAttempts)
		if err != nil {
			return err
		}

		name := captureName
		if name == "" {
			name = "capture_" + res.StartedAt.Format("20060102_150405")
		}
		sig := res.Signal(name)
		if err := a.captures.Save(sig); err != nil {
			return err
		}
		if captureSave {
			if err := a.library.Save(sig); err != nil {
				return err
			}
		}

		if jsonOut {
			return printJSON(sig)
		}
		fmt.Printf("Saved %q: %s transitions from %s samples, RSSI %.1f dBm (attempt %d)\n",
			name, humanize.Comma(int64(len(res.Timings))), humanize.Comma(int64(res.SampleCount)), res.RSSI, res.Attempt)
		fmt.Printf("  %s\n", res.Timings.Waveform(64))

		if captureDecode {
			an, err := a.analyzer.Analyze(res.Timings)
			if err != nil {
				fmt.Printf("Decode: %v\n", err)
				return nil
			}
			hdr := decoder.ReportHeader{Name: name, FrequencyMHz: sig.FrequencyMHz, Duration: res.Duration}
			return decoder.WriteReport(cmd.OutOrStdout(), hdr, an)
		}
		return nil
	}),
}

func init() {
	f := captureCmd.Flags()
	f.Float64VarP(&captureFreq, "freq", "f", 433.92, "frequency in MHz")
	f.DurationVarP(&captureDuration, "duration", "t", 5*time.Second, "recording time")
	f.IntVar(&captureAttempts, "attempts", 1, "recordings to try, keeping the best")
	f.StringVarP(&captureName, "name", "n", "", "signal name (default capture_<timestamp>)")
	f.BoolVar(&captureSave, "save", false, "also save into the signal library")
	f.BoolVar(&captureDecode, "decode", false, "print a decode report")
	rootCmd.AddCommand(captureCmd)
}
