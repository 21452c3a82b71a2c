package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/herlein/piflip/pkg/scanner"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if filepath.Base(c.LibraryDir) != "rf_library" || filepath.Base(c.PlaylistDir) != "playlists" {
		t.Errorf("dirs = %s %s", c.LibraryDir, c.PlaylistDir)
	}
	if c.Scan.StartMHz != scanner.DefaultStartMHz || c.Scan.Dwell != scanner.DefaultDwell {
		t.Errorf("scan = %+v", c.Scan)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	c := Default()
	c.Backend = BackendSQLite
	c.Scan.ThresholdDBm = -70
	c.Scan.Dwell = 50 * time.Millisecond

	if err := SaveToFile(c, path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}
	got, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if got.Backend != BackendSQLite || got.Scan.ThresholdDBm != -70 || got.Scan.Dwell != 50*time.Millisecond {
		t.Errorf("loaded = %+v", got)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"driver":"sim"}`), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.Driver != DriverSim || c.Backend != BackendFile || c.Scan.StepMHz != scanner.DefaultStepMHz {
		t.Errorf("config = %+v", c)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PIFLIP_DRIVER", "SIM")
	c, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Driver != DriverSim {
		t.Errorf("driver = %q", c.Driver)
	}
}

func TestLoadOverridesBeforeValidate(t *testing.T) {
	t.Setenv("PIFLIP_DRIVER", "serial")
	t.Setenv("PIFLIP_SERIAL_PORT", "")
	path := filepath.Join(t.TempDir(), "absent.json")

	if _, err := Load(path); !errors.Is(err, ErrMissingSerialPort) {
		t.Errorf("serial without port = %v", err)
	}
	c, err := Load(path, func(c *Config) { c.SerialPort = "/dev/ttyUSB0" })
	if err != nil {
		t.Fatalf("Load with override: %v", err)
	}
	if c.Driver != DriverSerial || c.SerialPort != "/dev/ttyUSB0" {
		t.Errorf("config = %+v", c)
	}
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PIFLIP_LIBRARY_DIR", filepath.Join(dir, "lib"))
	t.Setenv("PIFLIP_BACKEND", "SQLite")
	t.Setenv("PIFLIP_DB_PATH", filepath.Join(dir, "x.db"))
	t.Setenv("PIFLIP_LOG_LEVEL", "debug")

	c := Default()
	c.ApplyEnv()
	if c.LibraryDir != filepath.Join(dir, "lib") || c.Backend != BackendSQLite || c.LogLevel != "debug" {
		t.Errorf("config = %+v", c)
	}
	if c.DBPath != filepath.Join(dir, "x.db") {
		t.Errorf("db path = %q", c.DBPath)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"backend", func(c *Config) { c.Backend = "redis" }, ErrInvalidBackend},
		{"driver", func(c *Config) { c.Driver = "hackrf" }, ErrInvalidDriver},
		{"serial port", func(c *Config) { c.Driver = DriverSerial }, ErrMissingSerialPort},
		{"captures dir", func(c *Config) { c.CapturesDir = "" }, ErrMissingDirectory},
		{"scan dwell", func(c *Config) { c.Scan.Dwell = 0 }, scanner.ErrInvalidDwellTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			if err := c.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	c := Default()
	c.LibraryDir = filepath.Join(root, "a")
	c.CapturesDir = filepath.Join(root, "b")
	c.PlaylistDir = filepath.Join(root, "c", "d")
	if err := c.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	for _, d := range []string{c.LibraryDir, c.CapturesDir, c.PlaylistDir} {
		if fi, err := os.Stat(d); err != nil || !fi.IsDir() {
			t.Errorf("%s not created", d)
		}
	}
}
