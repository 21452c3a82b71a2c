package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultStepRepeats is used when a playlist step leaves repeats unset
const DefaultStepRepeats = 3

// Step is one entry of a transmit playlist. Delay is in seconds and applies
// after the step; FrequencyMHz overrides the stored frequency when non-zero.
type Step struct {
	Signal       string  `json:"signal"`
	Delay        float64 `json:"delay,omitempty"`
	Repeats      int     `json:"repeats,omitempty"`
	FrequencyMHz float64 `json:"frequency,omitempty"`
}

// RepeatCount returns Repeats or the default when unset
func (s Step) RepeatCount() int {
	if s.Repeats <= 0 {
		return DefaultStepRepeats
	}
	return s.Repeats
}

// DelayDuration converts Delay to a time.Duration
func (s Step) DelayDuration() time.Duration {
	if s.Delay <= 0 {
		return 0
	}
	return time.Duration(s.Delay * float64(time.Second))
}

// Playlist is a saved, named sequence of steps
type Playlist struct {
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
	Steps   []Step    `json:"playlist"`
}

// PlaylistStore keeps one JSON file per playlist
type PlaylistStore struct {
	dir string
}

// NewPlaylistStore creates dir if needed
func NewPlaylistStore(dir string) (*PlaylistStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &PlaylistStore{dir: dir}, nil
}

func (s *PlaylistStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Save writes the playlist, stamping Created when unset
func (s *PlaylistStore) Save(p *Playlist) error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("playlist %q: %w", p.Name, ErrEmptyPlaylist)
	}
	if p.Created.IsZero() {
		p.Created = time.Now()
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal playlist: %w", err)
	}
	if err := os.WriteFile(s.path(p.Name), data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Load reads a playlist by name
func (s *PlaylistStore) Load(name string) (*Playlist, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("playlist %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	var p Playlist
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal playlist %q: %w", name, err)
	}
	return &p, nil
}

// Names lists saved playlists alphabetically
func (s *PlaylistStore) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	sort.Strings(names)
	return names, nil
}
