// Package history keeps the session tape: a log of completed computations.
//
// The tape is an audit log only. It is never used to restore engine state.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sivchari/gocalc/internal/calculator"
)

const tapeVersion = "v1"

// Store manages the computation tape.
type Store struct {
	filepath string

	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

// Entry is one evaluated operation on the tape.
type Entry struct {
	Left      string    `json:"left"`
	Operator  string    `json:"operator"`
	Right     string    `json:"right"`
	Result    string    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Expression renders the entry as "left op right".
func (e Entry) Expression() string {
	return fmt.Sprintf("%s %s %s", e.Left, e.Operator, e.Right)
}

// Failed reports whether the computation ended in an error.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// New creates a tape store backed by filepath. An empty filepath keeps the
// tape in memory only. Existing entries in the file are loaded.
func New(filepath string) (*Store, error) {
	store := &Store{
		filepath: filepath,
		entries:  make([]Entry, 0),
		now:      time.Now,
	}

	if filepath == "" {
		return store, nil
	}

	if err := store.load(); err != nil {
		// A missing file is created on save.
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load tape: %w", err)
		}
	}

	return store, nil
}

// load reads the tape file into memory.
func (s *Store) load() error {
	data, err := os.ReadFile(s.filepath)
	if err != nil {
		return fmt.Errorf("failed to read tape file: %w", err)
	}

	var tapeData struct {
		Entries []Entry `json:"entries"`
	}

	if err := json.Unmarshal(data, &tapeData); err != nil {
		return fmt.Errorf("failed to unmarshal tape data: %w", err)
	}

	if tapeData.Entries != nil {
		s.entries = tapeData.Entries
	}

	return nil
}

// Record appends a computation to the tape. It implements calculator.Recorder.
func (s *Store) Record(c calculator.Computation) {
	entry := Entry{
		Left:     c.Left,
		Operator: c.Operator.Symbol(),
		Right:    c.Right,
		Result:   c.Result,
	}

	if c.Err != nil {
		entry.Error = c.Err.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry.Timestamp = s.now()
	s.entries = append(s.entries, entry)
}

// Entries returns a copy of the tape.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)

	return entries
}

// Reset drops every entry. The file is rewritten on the next Save.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make([]Entry, 0)
}

// Save writes the tape to disk. It is a no-op for in-memory stores.
func (s *Store) Save() error {
	if s.filepath == "" {
		return nil
	}

	s.mu.Lock()
	tapeData := struct {
		Entries []Entry   `json:"entries"`
		SavedAt time.Time `json:"savedAt"`
		Version string    `json:"version"`
	}{
		Entries: s.entries,
		SavedAt: s.now(),
		Version: tapeVersion,
	}

	data, err := json.MarshalIndent(tapeData, "", "  ")
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to marshal tape data: %w", err)
	}

	if err := os.WriteFile(s.filepath, data, 0600); err != nil {
		return fmt.Errorf("failed to write tape file: %w", err)
	}

	return nil
}

// GetStats returns overall statistics for the tape.
func (s *Store) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		ByOperator: make(map[string]int),
	}

	for _, entry := range s.entries {
		stats.Total++
		stats.ByOperator[entry.Operator]++

		if entry.Failed() {
			stats.Failed++
		}

		if entry.Timestamp.After(stats.LastUpdated) {
			stats.LastUpdated = entry.Timestamp
		}
	}

	return stats
}

// Stats represents aggregated tape statistics.
type Stats struct {
	Total       int            `json:"total"`
	Failed      int            `json:"failed"`
	ByOperator  map[string]int `json:"byOperator"`
	LastUpdated time.Time      `json:"lastUpdated"`
}
