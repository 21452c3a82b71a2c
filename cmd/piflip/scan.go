package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/herlein/piflip/pkg/scanner"
)

var (
	scanStart     float64
	scanEnd       float64
	scanStep      float64
	scanThreshold float64
	scanDwell     time.Duration
	scanMonitor   bool
)

// scanConfig starts from the settings file and applies flags the user set
func scanConfig(cmd *cobra.Command, a *app) scanner.Config {
	cfg := a.cfg.Scan
	f := cmd.Flags()
	if f.Changed("start") {
		cfg.StartMHz = scanStart
	}
	if f.Changed("end") {
		cfg.EndMHz = scanEnd
	}
	if f.Changed("step") {
		cfg.StepMHz = scanStep
	}
	if f.Changed("threshold") {
		cfg.ThresholdDBm = scanThreshold
	}
	if f.Changed("dwell") {
		cfg.Dwell = scanDwell
	}
	return cfg
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find active frequencies by RSSI",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		h, err := a.openRadio()
		if err != nil {
			return err
		}
		s := scanner.New(h, a.log.With("scan"))
		cfg := scanConfig(cmd, a)

		if scanMonitor {
			return monitor(cmd, s, cfg)
		}

		hits, err := s.Scan(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(hits)
		}
		if len(hits) == 0 {
			fmt.Printf("No signals above %.1f dBm between %.3f and %.3f MHz\n", cfg.ThresholdDBm, cfg.StartMHz, cfg.EndMHz)
			return nil
		}
		for _, h := range hits {
			fmt.Printf("%.2f MHz  %.1f dBm\n", h.FrequencyMHz, h.RSSI)
		}
		return nil
	}),
}

// monitor sweeps until interrupted, printing signals as they come and go
func monitor(cmd *cobra.Command, s *scanner.Scanner, cfg scanner.Config) error {
	s.Tracker = scanner.DefaultTracker()
	s.Tracker.SetCallbacks(
		func(info scanner.SignalInfo) {
			fmt.Printf("[%s] signal at %.3f MHz, %.1f dBm\n",
				info.FirstSeen.Format("15:04:05"), info.FrequencyMHz, info.RSSI)
		},
		func(info scanner.SignalInfo) {
			fmt.Printf("[%s] lost %.3f MHz after %d detections, peak %.1f dBm\n",
				time.Now().Format("15:04:05"), info.FrequencyMHz, info.DetectionCount, info.MaxRSSI)
		},
	)
	fmt.Printf("Monitoring %.3f-%.3f MHz, Ctrl+C to stop\n", cfg.StartMHz, cfg.EndMHz)
	return s.Monitor(cmd.Context(), cfg, scanner.DefaultSweepInterval, nil)
}

func init() {
	f := scanCmd.Flags()
	f.Float64Var(&scanStart, "start", scanner.DefaultStartMHz, "first frequency in MHz")
	f.Float64Var(&scanEnd, "end", scanner.DefaultEndMHz, "last frequency in MHz")
	f.Float64Var(&scanStep, "step", scanner.DefaultStepMHz, "step in MHz")
	f.Float64Var(&scanThreshold, "threshold", scanner.DefaultThresholdDBm, "RSSI threshold in dBm")
	f.DurationVar(&scanDwell, "dwell", scanner.DefaultDwell, "time per frequency")
	f.BoolVar(&scanMonitor, "monitor", false, "sweep continuously and track signals")
	rootCmd.AddCommand(scanCmd)
}
