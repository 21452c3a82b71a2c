package library

import (
	"errors"
	"fmt"
	"sort"
)

// Loader fetches a signal by name, returning ErrNotFound when absent
type Loader interface {
	Load(name string) (*Signal, error)
}

// Store is a named signal collection. Saving an existing name replaces it.
type Store interface {
	Loader
	Save(sig *Signal) error
	// List returns summaries newest first
	List() ([]Summary, error)
	Delete(name string) error
	Close() error
}

func sortNewestFirst(list []Summary) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

// Chain probes several loaders in order, e.g. the saved library and then
// raw captures
type Chain []Loader

// Load returns the first hit. ErrNotFound is returned only when every
// loader misses; any other error stops the probe.
func (c Chain) Load(name string) (*Signal, error) {
	for _, l := range c {
		sig, err := l.Load(name)
		if err == nil {
			return sig, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("signal %q: %w", name, ErrNotFound)
}
