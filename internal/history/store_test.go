package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sivchari/gocalc/internal/calculator"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	tapeFile := filepath.Join(tmpDir, "tape.json")

	store, err := New(tapeFile)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if store.filepath != tapeFile {
		t.Errorf("Expected filepath %s, got %s", tapeFile, store.filepath)
	}

	if store.entries == nil {
		t.Error("Expected entries to be initialized")
	}
}

func TestNew_InMemory(t *testing.T) {
	store, err := New("")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	store.Record(calculator.Computation{Left: "1", Operator: calculator.Add, Right: "1", Result: "2"})

	if err := store.Save(); err != nil {
		t.Errorf("Expected Save to be a no-op, got %v", err)
	}

	if len(store.Entries()) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(store.Entries()))
	}
}

func TestNew_ExistingFile(t *testing.T) {
	tmpDir := t.TempDir()
	tapeFile := filepath.Join(tmpDir, "existing.json")

	existingData := `{
		"entries": [
			{
				"left": "2",
				"operator": "+",
				"right": "3",
				"result": "5",
				"timestamp": "2023-01-01T00:00:00Z"
			}
		],
		"savedAt": "2023-01-01T00:00:00Z",
		"version": "v1"
	}`

	if err := os.WriteFile(tapeFile, []byte(existingData), 0600); err != nil {
		t.Fatalf("Failed to write existing tape file: %v", err)
	}

	store, err := New(tapeFile)
	if err != nil {
		t.Fatalf("Failed to create store with existing file: %v", err)
	}

	entries := store.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	if entries[0].Expression() != "2 + 3" {
		t.Errorf("Expected expression '2 + 3', got %q", entries[0].Expression())
	}

	if entries[0].Result != "5" {
		t.Errorf("Expected result '5', got %q", entries[0].Result)
	}
}

func TestNew_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	tapeFile := filepath.Join(tmpDir, "invalid.json")

	if err := os.WriteFile(tapeFile, []byte(`{"entries": [invalid json]}`), 0600); err != nil {
		t.Fatalf("Failed to write invalid tape file: %v", err)
	}

	if _, err := New(tapeFile); err == nil {
		t.Error("Expected error for invalid JSON, got nil")
	}
}

func TestRecord(t *testing.T) {
	store, err := New("")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = fixedClock(ts)

	store.Record(calculator.Computation{Left: "8", Operator: calculator.Divide, Right: "2", Result: "4"})
	store.Record(calculator.Computation{Left: "5", Operator: calculator.Divide, Right: "0", Err: calculator.ErrDivisionByZero})

	entries := store.Entries()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	want := Entry{Left: "8", Operator: "/", Right: "2", Result: "4", Timestamp: ts}
	if entries[0] != want {
		t.Errorf("Expected %+v, got %+v", want, entries[0])
	}

	if !entries[1].Failed() {
		t.Error("Expected second entry to be failed")
	}

	if entries[1].Error != calculator.ErrDivisionByZero.Error() {
		t.Errorf("Expected error %q, got %q", calculator.ErrDivisionByZero.Error(), entries[1].Error)
	}
}

func TestRecord_FromEngine(t *testing.T) {
	store, err := New("")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	engine := calculator.New(nil)
	engine.SetRecorder(store)

	for _, d := range []int{5, 0} {
		if err := engine.AppendDigit(d); err != nil {
			t.Fatalf("AppendDigit: %v", err)
		}
	}

	if err := engine.ChooseOperator(calculator.Percent); err != nil {
		t.Fatalf("ChooseOperator: %v", err)
	}

	for _, d := range []int{2, 0} {
		if err := engine.AppendDigit(d); err != nil {
			t.Fatalf("AppendDigit: %v", err)
		}
	}

	if err := engine.Equals(); err != nil {
		t.Fatalf("Equals: %v", err)
	}

	entries := store.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	if entries[0].Expression() != "50 % 20" || entries[0].Result != "10" {
		t.Errorf("Unexpected entry %+v", entries[0])
	}
}

func TestRecord_Concurrent(t *testing.T) {
	store, err := New("")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			store.Record(calculator.Computation{Left: "1", Operator: calculator.Add, Right: "1", Result: "2"})
		}()
	}

	wg.Wait()

	if got := len(store.Entries()); got != 20 {
		t.Errorf("Expected 20 entries, got %d", got)
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()
	tapeFile := filepath.Join(tmpDir, "save.json")

	store, err := New(tapeFile)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	store.Record(calculator.Computation{Left: "2", Operator: calculator.Power, Right: "3", Result: "8"})

	if err := store.Save(); err != nil {
		t.Fatalf("Failed to save tape: %v", err)
	}

	data, err := os.ReadFile(tapeFile)
	if err != nil {
		t.Fatalf("Failed to read tape file: %v", err)
	}

	var saved struct {
		Entries []Entry `json:"entries"`
		Version string  `json:"version"`
	}

	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("Failed to unmarshal saved tape: %v", err)
	}

	if saved.Version != tapeVersion {
		t.Errorf("Expected version %s, got %s", tapeVersion, saved.Version)
	}

	if len(saved.Entries) != 1 || saved.Entries[0].Result != "8" {
		t.Errorf("Unexpected saved entries %+v", saved.Entries)
	}

	reloaded, err := New(tapeFile)
	if err != nil {
		t.Fatalf("Failed to reload tape: %v", err)
	}

	if len(reloaded.Entries()) != 1 {
		t.Errorf("Expected reloaded tape to have 1 entry, got %d", len(reloaded.Entries()))
	}
}

func TestSave_InvalidPath(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "missing", "dir", "tape.json"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Save(); err == nil {
		t.Error("Expected error when saving into a missing directory")
	}
}

func TestReset(t *testing.T) {
	store, err := New("")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	store.Record(calculator.Computation{Left: "1", Operator: calculator.Add, Right: "1", Result: "2"})
	store.Reset()

	if len(store.Entries()) != 0 {
		t.Errorf("Expected empty tape after reset, got %d entries", len(store.Entries()))
	}
}

func TestGetStats(t *testing.T) {
	store, err := New("")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	store.now = fixedClock(late)
	store.Record(calculator.Computation{Left: "1", Operator: calculator.Add, Right: "1", Result: "2"})

	store.now = fixedClock(early)
	store.Record(calculator.Computation{Left: "2", Operator: calculator.Add, Right: "2", Result: "4"})
	store.Record(calculator.Computation{Left: "1", Operator: calculator.Divide, Right: "0", Err: calculator.ErrDivisionByZero})

	stats := store.GetStats()

	if stats.Total != 3 {
		t.Errorf("Expected Total 3, got %d", stats.Total)
	}

	if stats.Failed != 1 {
		t.Errorf("Expected Failed 1, got %d", stats.Failed)
	}

	if stats.ByOperator["+"] != 2 || stats.ByOperator["/"] != 1 {
		t.Errorf("Unexpected per-operator counts %v", stats.ByOperator)
	}

	if !stats.LastUpdated.Equal(late) {
		t.Errorf("Expected LastUpdated %v, got %v", late, stats.LastUpdated)
	}
}

func TestGetStats_Empty(t *testing.T) {
	store, err := New("")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	stats := store.GetStats()
	if stats.Total != 0 || stats.Failed != 0 || len(stats.ByOperator) != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}
}
