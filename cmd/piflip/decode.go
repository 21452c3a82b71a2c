package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/herlein/piflip/pkg/decoder"
	"github.com/herlein/piflip/pkg/encoder"
	"github.com/herlein/piflip/pkg/library"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <signal>",
	Short: "Classify a stored signal's pulse widths into bits",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		if err := a.openStores(); err != nil {
			return err
		}
		sig, err := a.signals().Load(args[0])
		if err != nil {
			return err
		}
		an, err := a.analyzer.Analyze(sig.Timings)
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(struct {
				*decoder.Analysis
				Pulses string `json:"binary"`
				Bits   string `json:"bits"`
			}{an, an.Decoded.Pulses, an.Decoded.Bits})
		}
		hdr := decoder.ReportHeader{
			Name:         sig.Name,
			FrequencyMHz: sig.FrequencyMHz,
			Duration:     time.Duration(sig.DurationS * float64(time.Second)),
		}
		return decoder.WriteReport(cmd.OutOrStdout(), hdr, an)
	}),
}

var (
	encodeProtocol string
	encodeShort    uint32
	encodeLong     uint32
	encodeFreq     float64
	encodeSaveAs   string
)

var encodeCmd = &cobra.Command{
	Use:   "encode <code>",
	Short: "Build timings for a fixed-code protocol",
	Long: "Encode turns a code word into transmit-ready timings.\n\nProtocols: " +
		strings.Join(encoder.Names(), ", "),
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		seq, err := encoder.Encode(encoder.Frame{
			Protocol: encodeProtocol,
			Code:     args[0],
			ShortUS:  encodeShort,
			LongUS:   encodeLong,
		})
		if err != nil {
			return err
		}

		if encodeSaveAs != "" {
			if err := a.openStores(); err != nil {
				return err
			}
			sig := &library.Signal{
				Name:         encodeSaveAs,
				FrequencyMHz: encodeFreq,
				Timings:      seq,
				DurationS:    seq.Total().Seconds(),
				SampleCount:  len(seq),
				Modulation:   library.ModulationOOK,
				CreatedAt:    time.Now(),
			}
			if err := a.library.Save(sig); err != nil {
				return err
			}
		}

		if jsonOut {
			return printJSON(seq)
		}
		name, _ := encoder.ParseProtocol(encodeProtocol)
		fmt.Printf("%s %q: %d timings, %s\n", name, args[0], len(seq), seq.Total())
		fmt.Printf("  %s\n", seq.Waveform(64))
		if encodeSaveAs != "" {
			fmt.Printf("Saved as %q at %.3f MHz\n", encodeSaveAs, encodeFreq)
		}
		return nil
	}),
}

func init() {
	f := encodeCmd.Flags()
	f.StringVarP(&encodeProtocol, "protocol", "p", encoder.PT2262, "protocol name")
	f.Uint32Var(&encodeShort, "short", 0, "custom short width in us")
	f.Uint32Var(&encodeLong, "long", 0, "custom long width in us")
	f.Float64VarP(&encodeFreq, "freq", "f", 433.92, "frequency stored with --save-as")
	f.StringVar(&encodeSaveAs, "save-as", "", "save the timings into the library under this name")
	rootCmd.AddCommand(decodeCmd, encodeCmd)
}
