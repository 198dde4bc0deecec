package ui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/FelixZhang1020/epub-translator-sub000/pkg/model"
)

// writeTestEtvDir creates a temporary .etv directory with a valid book
// file and returns its path.
func writeTestEtvDir(t *testing.T) string {
	t.Helper()
	etvDir := filepath.Join(t.TempDir(), ".etv")
	if err := os.MkdirAll(etvDir, 0755); err != nil {
		t.Fatalf("Failed to create etv dir: %v", err)
	}

	book := `{"title":"Faust","chapters":[{"id":"ch1","title":"Nacht"},{"id":"ch2","title":"Studierzimmer"}]}`
	if err := os.WriteFile(filepath.Join(etvDir, "book.json"), []byte(book), 0644); err != nil {
		t.Fatalf("Failed to write book file: %v", err)
	}

	progress := `{"ch1":{"completed":3,"total":10}}`
	if err := os.WriteFile(filepath.Join(etvDir, "progress.json"), []byte(progress), 0644); err != nil {
		t.Fatalf("Failed to write progress file: %v", err)
	}

	return etvDir
}

func TestBackgroundWorker_NewWithoutDir(t *testing.T) {
	worker, err := NewBackgroundWorker(WorkerConfig{EtvDir: ""})
	if err != nil {
		t.Fatalf("NewBackgroundWorker failed: %v", err)
	}
	defer worker.Stop()

	if worker.State() != WorkerIdle {
		t.Errorf("Expected idle state, got %v", worker.State())
	}

	if worker.GetSnapshot() != nil {
		t.Error("Expected nil snapshot initially")
	}

	if worker.WatcherChanged() != nil {
		t.Error("WatcherChanged should return nil when no watcher")
	}
}

func TestBackgroundWorker_NewWithDir(t *testing.T) {
	etvDir := writeTestEtvDir(t)

	worker, err := NewBackgroundWorker(WorkerConfig{
		EtvDir:        etvDir,
		DebounceDelay: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewBackgroundWorker failed: %v", err)
	}
	defer worker.Stop()

	if worker.State() != WorkerIdle {
		t.Errorf("Expected idle state, got %v", worker.State())
	}

	if worker.WatcherChanged() == nil {
		t.Error("WatcherChanged should return non-nil channel")
	}
}

func TestBackgroundWorker_StartStop(t *testing.T) {
	etvDir := writeTestEtvDir(t)

	worker, err := NewBackgroundWorker(WorkerConfig{
		EtvDir:        etvDir,
		DebounceDelay: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewBackgroundWorker failed: %v", err)
	}

	if err := worker.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Stop should be idempotent
	worker.Stop()
	worker.Stop() // Should not panic

	if worker.State() != WorkerStopped {
		t.Errorf("Expected stopped state, got %v", worker.State())
	}
}

func TestBackgroundWorker_TriggerRefresh(t *testing.T) {
	etvDir := writeTestEtvDir(t)

	worker, err := NewBackgroundWorker(WorkerConfig{
		EtvDir:        etvDir,
		DebounceDelay: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewBackgroundWorker failed: %v", err)
	}
	defer worker.Stop()

	worker.TriggerRefresh()

	// Wait for processing to complete
	time.Sleep(200 * time.Millisecond)

	snapshot := worker.GetSnapshot()
	if snapshot == nil {
		t.Fatal("Expected snapshot after refresh")
	}
	if snapshot.Book.Title != "Faust" {
		t.Errorf("Expected book title Faust, got %q", snapshot.Book.Title)
	}
	if len(snapshot.Progress) != 1 {
		t.Errorf("Expected 1 counter, got %d", len(snapshot.Progress))
	}
}

func TestBackgroundWorker_TriggerRefreshAfterStop(t *testing.T) {
	etvDir := writeTestEtvDir(t)

	worker, err := NewBackgroundWorker(WorkerConfig{
		EtvDir:        etvDir,
		DebounceDelay: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewBackgroundWorker failed: %v", err)
	}

	worker.Stop()
	worker.TriggerRefresh() // Should be a no-op, not a panic

	time.Sleep(100 * time.Millisecond)
	if worker.GetSnapshot() != nil {
		t.Error("Stopped worker should not build snapshots")
	}
}

func TestBackgroundWorker_ProgressFnOverride(t *testing.T) {
	etvDir := writeTestEtvDir(t)

	worker, err := NewBackgroundWorker(WorkerConfig{
		EtvDir:        etvDir,
		DebounceDelay: 50 * time.Millisecond,
		ProgressFn: func() (map[string]model.ChapterProgress, error) {
			return map[string]model.ChapterProgress{
				"ch1": {Completed: 10, Total: 10},
				"ch2": {Completed: 4, Total: 8},
			}, nil
		},
	})
	if err != nil {
		t.Fatalf("NewBackgroundWorker failed: %v", err)
	}
	defer worker.Stop()

	worker.TriggerRefresh()
	time.Sleep(200 * time.Millisecond)

	snapshot := worker.GetSnapshot()
	if snapshot == nil {
		t.Fatal("Expected snapshot after refresh")
	}

	// The progress function supersedes progress.json
	if len(snapshot.Progress) != 2 {
		t.Fatalf("Expected 2 counters from progress fn, got %d", len(snapshot.Progress))
	}
	if got := snapshot.Progress["ch1"].Completed; got != 10 {
		t.Errorf("Expected ch1 completed 10, got %d", got)
	}
}

func TestBackgroundWorker_LoadError(t *testing.T) {
	// Directory without a book file: load fails, error is recorded
	etvDir := t.TempDir()

	worker, err := NewBackgroundWorker(WorkerConfig{
		EtvDir:        etvDir,
		DebounceDelay: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewBackgroundWorker failed: %v", err)
	}
	defer worker.Stop()

	worker.TriggerRefresh()
	time.Sleep(200 * time.Millisecond)

	if worker.GetSnapshot() != nil {
		t.Error("Expected nil snapshot when book file is missing")
	}

	lastErr := worker.LastError()
	if lastErr == nil {
		t.Fatal("Expected a recorded error")
	}
	if lastErr.Phase != "load" {
		t.Errorf("Expected load phase, got %q", lastErr.Phase)
	}
}

func TestBackgroundWorker_ContentHashDedup(t *testing.T) {
	etvDir := writeTestEtvDir(t)

	worker, err := NewBackgroundWorker(WorkerConfig{
		EtvDir:        etvDir,
		DebounceDelay: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewBackgroundWorker failed: %v", err)
	}
	defer worker.Stop()

	// First refresh should build a snapshot and set the hash
	worker.TriggerRefresh()
	time.Sleep(200 * time.Millisecond)

	snapshot1 := worker.GetSnapshot()
	if snapshot1 == nil {
		t.Fatal("Expected snapshot after first refresh")
	}

	hash1 := worker.LastHash()
	if hash1 == "" {
		t.Error("Expected non-empty hash after first refresh")
	}

	// Second refresh with same content should be deduped
	worker.TriggerRefresh()
	time.Sleep(200 * time.Millisecond)

	snapshot2 := worker.GetSnapshot()
	hash2 := worker.LastHash()

	if hash1 != hash2 {
		t.Errorf("Hash changed unexpectedly: %s -> %s", hash1, hash2)
	}
	if snapshot1 != snapshot2 {
		t.Error("Snapshot pointer changed when content was unchanged - dedup failed")
	}
}

func TestBackgroundWorker_ContentHashChanges(t *testing.T) {
	etvDir := writeTestEtvDir(t)

	worker, err := NewBackgroundWorker(WorkerConfig{
		EtvDir:        etvDir,
		DebounceDelay: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewBackgroundWorker failed: %v", err)
	}
	defer worker.Stop()

	worker.TriggerRefresh()
	time.Sleep(200 * time.Millisecond)

	hash1 := worker.LastHash()
	if hash1 == "" {
		t.Fatal("Expected non-empty hash after first refresh")
	}

	// The pipeline advanced a counter
	progress := `{"ch1":{"completed":7,"total":10}}`
	if err := os.WriteFile(filepath.Join(etvDir, "progress.json"), []byte(progress), 0644); err != nil {
		t.Fatalf("Failed to rewrite progress file: %v", err)
	}

	worker.TriggerRefresh()
	time.Sleep(200 * time.Millisecond)

	hash2 := worker.LastHash()
	if hash1 == hash2 {
		t.Error("Expected hash to change after content change")
	}

	snapshot := worker.GetSnapshot()
	if snapshot == nil {
		t.Fatal("Expected snapshot after second refresh")
	}
	if got := snapshot.Progress["ch1"].Completed; got != 7 {
		t.Errorf("Expected updated counter 7, got %d", got)
	}
}

func TestBackgroundWorker_ResetHash(t *testing.T) {
	etvDir := writeTestEtvDir(t)

	worker, err := NewBackgroundWorker(WorkerConfig{
		EtvDir:        etvDir,
		DebounceDelay: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewBackgroundWorker failed: %v", err)
	}
	defer worker.Stop()

	worker.TriggerRefresh()
	time.Sleep(200 * time.Millisecond)

	if worker.LastHash() == "" {
		t.Fatal("Expected non-empty hash after refresh")
	}

	worker.ResetHash()
	if worker.LastHash() != "" {
		t.Error("Expected empty hash after ResetHash")
	}
}
