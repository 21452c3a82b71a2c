// piflip captures, decodes and replays sub-GHz OOK remotes through a
// YardStick One, a serial radio bridge or a simulated transceiver
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/herlein/piflip/pkg/config"
)

var (
	configPath string
	driverFlag string
	deviceFlag string
	portFlag   string
	logLevel   string
	jsonOut    bool
)

var rootCmd = &cobra.Command{
	Use:   "piflip",
	Short: "Capture, decode and replay sub-GHz OOK remotes",
	Long: `piflip records on/off keyed remotes (garage doors, gates, doorbells) as
run-length timings, decodes their pulse widths into bits, and transmits
stored or synthesized codes.

Radio drivers:
  yardstick  YardStick One over USB (default)
  serial     serial bridge speaking the line protocol
  sim        in-memory transceiver for dry runs`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultPath(), "settings file")
	pf.StringVar(&driverFlag, "driver", "", "radio driver: yardstick, serial or sim")
	pf.StringVarP(&deviceFlag, "device", "d", "", "YardStick One to use: serial, bus:addr, or #index")
	pf.StringVar(&portFlag, "port", "", "serial bridge port, e.g. /dev/ttyUSB0")
	pf.StringVar(&logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR")
	pf.BoolVar(&jsonOut, "json", false, "print results as JSON")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
