// Package config holds the PiFlip settings file: storage locations, the
// radio driver to open, and scan defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/herlein/piflip/pkg/logger"
	"github.com/herlein/piflip/pkg/scanner"
)

// Storage backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Radio drivers
const (
	DriverYardStick = "yardstick"
	DriverSerial    = "serial"
	DriverSim       = "sim"
)

// Configuration errors
var (
	// ErrInvalidBackend indicates an unknown library backend
	ErrInvalidBackend = errors.New("backend must be file or sqlite")

	// ErrInvalidDriver indicates an unknown radio driver
	ErrInvalidDriver = errors.New("driver must be yardstick, serial or sim")

	// ErrMissingDirectory indicates an empty storage directory
	ErrMissingDirectory = errors.New("storage directory not set")

	// ErrMissingSerialPort indicates the serial driver without a port
	ErrMissingSerialPort = errors.New("serial driver needs a serial port")
)

// Config is the persisted settings file
type Config struct {
	LogLevel    string `json:"log_level"`
	LibraryDir  string `json:"library_dir"`
	CapturesDir string `json:"captures_dir"`
	PlaylistDir string `json:"playlist_dir"`

	Backend string `json:"backend"`
	DBPath  string `json:"db_path,omitempty"`

	Driver     string `json:"driver"`
	Device     string `json:"device,omitempty"`
	SerialPort string `json:"serial_port,omitempty"`
	SerialBaud int    `json:"serial_baud,omitempty"`

	Scan scanner.Config `json:"scan"`
}

// Default places everything under ~/piflip
func Default() *Config {
	root := "piflip"
	if home, err := os.UserHomeDir(); err == nil {
		root = filepath.Join(home, "piflip")
	}
	return &Config{
		LogLevel:    "INFO",
		LibraryDir:  filepath.Join(root, "rf_library"),
		CapturesDir: filepath.Join(root, "captures"),
		PlaylistDir: filepath.Join(root, "playlists"),
		Backend:     BackendFile,
		DBPath:      filepath.Join(root, "rf_library.db"),
		Driver:      DriverYardStick,
		SerialBaud:  115200,
		Scan:        scanner.DefaultConfig(),
	}
}

// DefaultPath is where the CLI looks for the settings file
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("etc", "piflip.json")
	}
	return filepath.Join(home, ".config", "piflip", "config.json")
}

// ApplyEnv overrides fields from PIFLIP_* environment variables
func (c *Config) ApplyEnv() {
	for _, o := range []struct {
		key string
		dst *string
	}{
		{"PIFLIP_LOG_LEVEL", &c.LogLevel},
		{"PIFLIP_LIBRARY_DIR", &c.LibraryDir},
		{"PIFLIP_CAPTURES_DIR", &c.CapturesDir},
		{"PIFLIP_PLAYLIST_DIR", &c.PlaylistDir},
		{"PIFLIP_BACKEND", &c.Backend},
		{"PIFLIP_DB_PATH", &c.DBPath},
		{"PIFLIP_DRIVER", &c.Driver},
		{"PIFLIP_DEVICE", &c.Device},
		{"PIFLIP_SERIAL_PORT", &c.SerialPort},
	} {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.dst = v
		}
	}
	c.Backend = strings.ToLower(c.Backend)
	c.Driver = strings.ToLower(c.Driver)
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile:
	case BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("%w: db_path", ErrMissingDirectory)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Backend)
	}

	switch c.Driver {
	case DriverYardStick, DriverSim:
	case DriverSerial:
		if c.SerialPort == "" {
			return ErrMissingSerialPort
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDriver, c.Driver)
	}

	for name, dir := range map[string]string{
		"library_dir":  c.LibraryDir,
		"captures_dir": c.CapturesDir,
		"playlist_dir": c.PlaylistDir,
	} {
		if dir == "" {
			return fmt.Errorf("%w: %s", ErrMissingDirectory, name)
		}
	}
	return c.Scan.Validate()
}

// Logger builds a logger at the configured level
func (c *Config) Logger() *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Level = logger.ParseLevel(c.LogLevel)
	return logger.New(cfg)
}
