// Package history records per-video download timestamps in a JSON file.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// TimestampFormat is the layout used for recorded download times.
const TimestampFormat = "2006-01-02 15:04:05"

// Store maps video identifiers to the timestamp of their last successful
// download. Every Record persists immediately so a crash mid-batch loses at
// most the item in flight.
type Store struct {
	mu      sync.Mutex
	path    string
	entries map[string]string
	now     func() time.Time
}

// NewStore creates a history store backed by the JSON file at path.
func NewStore(path string) *Store {
	return &Store{
		path:    path,
		entries: make(map[string]string),
		now:     time.Now,
	}
}

// Load reads the history file. A missing or corrupt file leaves the store
// empty; the error is returned for logging only.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]string)

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read history file: %w", err)
	}

	var entries map[string]string
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("failed to parse history file: %w", err)
	}

	s.entries = entries
	return nil
}

// Record stores the current time for id and persists the file.
func (s *Store) Record(id string) error {
	if id == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[id] = s.now().Format(TimestampFormat)
	return s.saveLocked()
}

// Lookup returns the recorded timestamp for id.
func (s *Store) Lookup(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.entries[id]
	return ts, ok
}

// Len returns the number of recorded entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) saveLocked() error {
	raw, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}
