package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/herlein/piflip/pkg/capture"
	"github.com/herlein/piflip/pkg/config"
	"github.com/herlein/piflip/pkg/decoder"
	"github.com/herlein/piflip/pkg/library"
	"github.com/herlein/piflip/pkg/logger"
	"github.com/herlein/piflip/pkg/radio"
	"github.com/herlein/piflip/pkg/serialbridge"
	"github.com/herlein/piflip/pkg/transmit"
	"github.com/herlein/piflip/pkg/yardstick"
)

// app carries the resources one command invocation opened
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	analyzer decoder.Analyzer

	radio    *radio.Handle
	ys1      *yardstick.Radio
	library  library.Store
	captures library.Store
}

// newApp loads settings and applies command line overrides
func newApp() (*app, error) {
	cfg, err := config.Load(configPath, applyFlags)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &app{cfg: cfg, log: cfg.Logger(), analyzer: decoder.Default{}}, nil
}

// applyFlags overrides the file and environment with global flags
func applyFlags(cfg *config.Config) {
	if driverFlag != "" {
		cfg.Driver = driverFlag
	}
	if deviceFlag != "" {
		cfg.Device = deviceFlag
	}
	if portFlag != "" {
		cfg.SerialPort = portFlag
		if driverFlag == "" {
			cfg.Driver = config.DriverSerial
		}
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
}

// openRadio opens the configured transceiver driver
func (a *app) openRadio() (*radio.Handle, error) {
	if a.radio != nil {
		return a.radio, nil
	}
	var (
		tr  radio.Transceiver
		err error
	)
	switch a.cfg.Driver {
	case config.DriverYardStick:
		a.ys1, err = yardstick.Open(yardstick.Selector(a.cfg.Device), a.log.With("yardstick"))
		tr = a.ys1
	case config.DriverSerial:
		tr, err = serialbridge.Open(a.cfg.SerialPort, a.cfg.SerialBaud, a.log.With("serial"))
	case config.DriverSim:
		tr = radio.NewSim(nil, -100)
	default:
		err = fmt.Errorf("%w: %q", config.ErrInvalidDriver, a.cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open radio: %w", err)
	}
	a.radio = radio.NewHandle(tr, a.log)
	return a.radio, nil
}

// openStores opens the signal library and the raw capture directory
func (a *app) openStores() error {
	if a.library != nil {
		return nil
	}
	var err error
	switch a.cfg.Backend {
	case config.BackendSQLite:
		a.library, err = library.NewSQLiteStore(a.cfg.DBPath)
	default:
		a.library, err = library.NewFileStore(a.cfg.LibraryDir, a.log)
	}
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	a.captures, err = library.NewFileStore(a.cfg.CapturesDir, a.log)
	if err != nil {
		return fmt.Errorf("failed to open captures: %w", err)
	}
	return nil
}

// signals looks names up in the library first, then in raw captures
func (a *app) signals() library.Loader {
	return library.Chain{a.library, a.captures}
}

// engine opens the radio and stores and wires a transmit engine
func (a *app) engine() (*transmit.Engine, error) {
	h, err := a.openRadio()
	if err != nil {
		return nil, err
	}
	if err := a.openStores(); err != nil {
		return nil, err
	}
	e := transmit.New(h, a.signals(), a.log.With("transmit"))
	e.Capturer = capture.New(h, a.log.With("capture"))
	e.Analyzer = a.analyzer
	return e, nil
}

func (a *app) Close() {
	if a.radio != nil {
		if err := a.radio.Close(); err != nil {
			a.log.Warnf("failed to close radio: %v", err)
		}
	}
	for _, s := range []library.Store{a.library, a.captures} {
		if s != nil {
			s.Close()
		}
	}
}

// withApp builds the app around a command body and closes it afterwards
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, args)
	}
}

// printJSON writes v indented to stdout
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
