// Package ui provides the terminal user interface for the translation
// viewer. This file implements the BackgroundWorker for off-thread
// snapshot loading.
package ui

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	json "github.com/goccy/go-json"

	"github.com/FelixZhang1020/epub-translator-sub000/pkg/loader"
	"github.com/FelixZhang1020/epub-translator-sub000/pkg/model"
	"github.com/FelixZhang1020/epub-translator-sub000/pkg/watcher"
)

// WorkerState represents the current state of the background worker.
type WorkerState int

const (
	// WorkerIdle means the worker is waiting for file changes.
	WorkerIdle WorkerState = iota
	// WorkerProcessing means the worker is building a new snapshot.
	WorkerProcessing
	// WorkerStopped means the worker has been stopped.
	WorkerStopped
)

// WorkerError wraps errors with phase and retry context.
type WorkerError struct {
	Phase   string    // "load" or "progress"
	Cause   error     // The underlying error
	Time    time.Time // When the error occurred
	Retries int       // Number of retry attempts
}

func (e WorkerError) Error() string {
	return fmt.Sprintf("%s failed: %v (retries: %d)", e.Phase, e.Cause, e.Retries)
}

func (e WorkerError) Unwrap() error {
	return e.Cause
}

// ProgressFn re-reads the per-chapter counters. The caller decides the
// source: translation.db when present, progress.json otherwise.
type ProgressFn func() (map[string]model.ChapterProgress, error)

// BackgroundWorker reloads the book snapshot off the UI thread. It owns
// the file watcher over the .etv directory, coalesces change bursts, and
// skips rebuilds when the content hash is unchanged (pipelines rewrite
// files even when nothing moved).
type BackgroundWorker struct {
	// Configuration
	etvDir        string
	debounceDelay time.Duration
	progressFn    ProgressFn

	// State
	mu       sync.RWMutex
	state    WorkerState
	dirty    bool // True if a change came in while processing
	snapshot *loader.Snapshot
	started  bool   // True if Start() has been called
	lastHash string // Content hash of last processed snapshot (for dedup)

	// Error tracking
	lastError  *WorkerError // Most recent error (nil if last operation succeeded)
	errorCount int          // Consecutive error count

	// Components
	watcher *watcher.Watcher
	program *tea.Program

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// WorkerConfig configures the BackgroundWorker.
type WorkerConfig struct {
	EtvDir        string
	DebounceDelay time.Duration
	Program       *tea.Program
	ProgressFn    ProgressFn
}

// NewBackgroundWorker creates a new background worker.
func NewBackgroundWorker(cfg WorkerConfig) (*BackgroundWorker, error) {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.DebounceDelay == 0 {
		cfg.DebounceDelay = 200 * time.Millisecond
	}

	w := &BackgroundWorker{
		etvDir:        cfg.EtvDir,
		debounceDelay: cfg.DebounceDelay,
		progressFn:    cfg.ProgressFn,
		program:       cfg.Program,
		state:         WorkerIdle,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}

	if cfg.EtvDir != "" {
		fw, err := watcher.NewWatcher(cfg.EtvDir,
			watcher.WithDebounceDuration(cfg.DebounceDelay),
		)
		if err != nil {
			cancel()
			return nil, err
		}
		w.watcher = fw
	}

	return w, nil
}

// SetProgram wires the bubbletea program after construction. The program
// needs the model and the model needs the worker, so one of the two is
// attached late.
func (w *BackgroundWorker) SetProgram(p *tea.Program) {
	w.mu.Lock()
	w.program = p
	w.mu.Unlock()
}

// Start begins watching for file changes and processing in the background.
// Start is idempotent - calling it multiple times has no effect.
func (w *BackgroundWorker) Start() error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil // Already started
	}
	w.started = true
	w.mu.Unlock()

	if w.watcher != nil {
		if err := w.watcher.Start(); err != nil {
			return err
		}

		go w.processLoop()
	} else {
		// No watcher - close done channel immediately so Stop() doesn't block
		close(w.done)
	}

	return nil
}

// Stop halts the background worker and cleans up resources.
// Stop is idempotent - calling it multiple times has no effect.
func (w *BackgroundWorker) Stop() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	w.state = WorkerStopped
	wasStarted := w.started
	w.mu.Unlock()

	w.cancel()

	if w.watcher != nil {
		w.watcher.Stop()
	}

	// Only wait for done if Start() was called
	if wasStarted {
		select {
		case <-w.done:
		case <-time.After(2 * time.Second):
			// Timeout waiting for graceful shutdown
		}
	}
}

// TriggerRefresh manually triggers a reload of the book data.
// Has no effect if the worker is stopped or already processing.
func (w *BackgroundWorker) TriggerRefresh() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	if w.state == WorkerProcessing {
		w.dirty = true
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	go w.process()
}

// GetSnapshot returns the current snapshot (may be nil).
func (w *BackgroundWorker) GetSnapshot() *loader.Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshot
}

// State returns the current worker state.
func (w *BackgroundWorker) State() WorkerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// processLoop watches for file changes and triggers processing.
func (w *BackgroundWorker) processLoop() {
	defer close(w.done)

	if w.watcher == nil {
		return
	}

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-w.watcher.Changed():
			w.process()
		}
	}
}

// process builds a new snapshot from the files on disk.
func (w *BackgroundWorker) process() {
	w.mu.Lock()
	if w.state != WorkerIdle {
		// Already stopped or processing
		if w.state == WorkerProcessing {
			// Mark dirty so current processor will re-run when done
			w.dirty = true
		}
		w.mu.Unlock()
		return
	}
	w.state = WorkerProcessing
	w.dirty = false
	w.mu.Unlock()

	// Returns nil if content unchanged (dedup) or on error
	snapshot := w.buildSnapshot()

	w.mu.Lock()
	// Check if stopped while we were processing - don't overwrite stopped state
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	if snapshot != nil {
		w.snapshot = snapshot
	}
	wasDirty := w.dirty
	w.state = WorkerIdle
	program := w.program
	w.mu.Unlock()

	// Notify UI only if we have a new snapshot
	if program != nil && snapshot != nil {
		program.Send(SnapshotReadyMsg{Snapshot: snapshot})
	}

	// If dirty, process again immediately
	if wasDirty {
		go w.process()
	}
}

// safeCompute executes fn and recovers from any panics.
// Returns a WorkerError if fn panics, nil otherwise.
func (w *BackgroundWorker) safeCompute(phase string, fn func() error) *WorkerError {
	var result *WorkerError
	func() {
		defer func() {
			if r := recover(); r != nil {
				result = &WorkerError{
					Phase: phase,
					Cause: fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
					Time:  time.Now(),
				}
			}
		}()
		if err := fn(); err != nil {
			result = &WorkerError{
				Phase: phase,
				Cause: err,
				Time:  time.Now(),
			}
		}
	}()
	return result
}

// recordError tracks an error and updates error state.
func (w *BackgroundWorker) recordError(err *WorkerError) {
	w.mu.Lock()
	w.lastError = err
	if err != nil {
		w.errorCount++
		err.Retries = w.errorCount
	} else {
		w.errorCount = 0
	}
	w.mu.Unlock()
}

// LastError returns the most recent error (nil if last operation succeeded).
func (w *BackgroundWorker) LastError() *WorkerError {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastError
}

// buildSnapshot loads book and progress and returns a new snapshot.
// This is called from the worker goroutine (NOT the UI thread).
// Returns nil if etvDir is empty, loading fails, or content is unchanged.
func (w *BackgroundWorker) buildSnapshot() *loader.Snapshot {
	if w.etvDir == "" {
		return nil
	}

	start := time.Now()

	var snap loader.Snapshot
	loadErr := w.safeCompute("load", func() error {
		var err error
		snap, err = loader.LoadSnapshot(w.etvDir)
		return err
	})

	if loadErr == nil && w.progressFn != nil {
		loadErr = w.safeCompute("progress", func() error {
			progress, err := w.progressFn()
			if err != nil {
				return err
			}
			snap.Progress = progress
			return nil
		})
	}

	if loadErr != nil {
		log.Printf("buildSnapshot: error loading %s: %v", w.etvDir, loadErr)
		w.recordError(loadErr)

		w.mu.RLock()
		program := w.program
		w.mu.RUnlock()
		if program != nil {
			program.Send(SnapshotErrorMsg{
				Err:         loadErr,
				Recoverable: true, // File errors are usually recoverable
			})
		}
		return nil
	}

	loadDuration := time.Since(start)

	hash := snapshotHash(snap)

	w.mu.RLock()
	lastHash := w.lastHash
	w.mu.RUnlock()

	if hash == lastHash && lastHash != "" {
		log.Printf("buildSnapshot: content unchanged (hash=%s), skipping rebuild", hashPrefix(hash))
		// Clear any previous error on successful dedup
		w.recordError(nil)
		return nil
	}

	w.recordError(nil)

	w.mu.Lock()
	w.lastHash = hash
	w.mu.Unlock()

	log.Printf("buildSnapshot: loaded %d chapters (load=%v, hash=%s)",
		len(snap.Book.Chapters), loadDuration, hashPrefix(hash))

	return &snap
}

// SnapshotReadyMsg is sent to the UI when a new snapshot is ready.
type SnapshotReadyMsg struct {
	Snapshot *loader.Snapshot
}

// SnapshotErrorMsg is sent to the UI when snapshot loading fails.
type SnapshotErrorMsg struct {
	Err         error
	Recoverable bool // True if we expect to recover on next file change
}

// WatcherChanged returns the watcher's change notification channel.
func (w *BackgroundWorker) WatcherChanged() <-chan struct{} {
	if w.watcher == nil {
		return nil
	}
	return w.watcher.Changed()
}

// LastHash returns the content hash from the last successful snapshot
// build. Useful for testing and debugging.
func (w *BackgroundWorker) LastHash() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastHash
}

// snapshotHash computes a content hash over the book and its counters.
func snapshotHash(snap loader.Snapshot) string {
	h := sha256.New()
	if b, err := json.Marshal(snap.Book); err == nil {
		h.Write(b)
	}
	if b, err := json.Marshal(snap.Progress); err == nil {
		h.Write(b)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// hashPrefix returns a safe prefix of the hash for logging.
// Returns up to 16 characters, or the full hash if shorter.
func hashPrefix(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}

// ResetHash clears the stored content hash, forcing the next buildSnapshot
// to process even if content is unchanged. Useful for testing.
func (w *BackgroundWorker) ResetHash() {
	w.mu.Lock()
	w.lastHash = ""
	w.mu.Unlock()
}
