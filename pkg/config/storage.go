package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

func SaveToFile(configuration *Config, path string) error {
	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(configuration, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// LoadFromFile reads a settings file over the defaults, so a partial file
// keeps every field it omits
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	configuration := Default()
	if err := json.Unmarshal(data, configuration); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return configuration, nil
}

// Load reads path if it exists, falls back to defaults otherwise, then
// applies the environment and each override in order before validating
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	configuration, err := LoadFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		configuration, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}
	configuration.ApplyEnv()
	for _, override := range overrides {
		override(configuration)
	}
	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return configuration, nil
}

// EnsureDirs creates the storage directories
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.LibraryDir, c.CapturesDir, c.PlaylistDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}
