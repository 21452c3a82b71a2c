package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/herlein/piflip/pkg/logger"
)

// FileStore keeps one indented JSON document per signal in a directory
type FileStore struct {
	dir string
	log *logger.Logger
}

// NewFileStore creates dir if needed
func NewFileStore(dir string, log *logger.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &FileStore{dir: dir, log: logger.OrNop(log)}, nil
}

// Dir returns the backing directory
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) Save(sig *Signal) error {
	if err := sig.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(sig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal signal: %w", err)
	}
	// written to a temp file and renamed into place
	tmp := s.path(sig.Name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, s.path(sig.Name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (s *FileStore) Load(name string) (*Signal, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("signal %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var sig Signal
	if err := json.Unmarshal(data, &sig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signal %q: %w", name, err)
	}
	if sig.Name == "" {
		sig.Name = name
	}
	return &sig, nil
}

// List skips files that fail to parse
func (s *FileStore) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var out []Summary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		sig, err := s.Load(name)
		if err != nil {
			s.log.Warnf("skipping %s: %v", e.Name(), err)
			continue
		}
		out = append(out, sig.Summary())
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *FileStore) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	err := os.Remove(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("signal %q: %w", name, ErrNotFound)
	}
	return err
}

func (s *FileStore) Close() error { return nil }
