// Package loader locates a book's .etv pipeline directory and reads the
// TOC and progress payloads the translation pipeline writes there.
package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/FelixZhang1020/epub-translator-sub000/pkg/model"
)

// EtvDirEnvVar is the name of the environment variable for a custom
// pipeline directory.
const EtvDirEnvVar = "ETV_DIR"

// File names the pipeline writes into the .etv directory.
const (
	BookFileName     = "book.json"
	ProgressFileName = "progress.json"
	DatabaseFileName = "translation.db"
)

// GetEtvDir returns the pipeline directory path, respecting the ETV_DIR
// environment variable. If ETV_DIR is set, it is used directly. Otherwise,
// falls back to .etv in the given bookPath (or cwd if empty).
func GetEtvDir(bookPath string) (string, error) {
	if envDir := os.Getenv(EtvDirEnvVar); envDir != "" {
		return envDir, nil
	}

	if bookPath == "" {
		var err error
		bookPath, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
	}

	return filepath.Join(bookPath, ".etv"), nil
}

// DetectRoot attempts to find the book directory by walking up from the
// current directory looking for .etv/.
func DetectRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return findEtvRoot(dir)
}

// findEtvRoot walks up from dir looking for an .etv/ directory.
func findEtvRoot(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		etvDir := filepath.Join(dir, ".etv")
		if info, err := os.Stat(etvDir); err == nil && info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}

// LoadBook reads the TOC payload from the pipeline directory.
func LoadBook(etvDir string) (model.Book, error) {
	return LoadBookFromFile(filepath.Join(etvDir, BookFileName))
}

// LoadBookFromFile reads the TOC payload from a specific file path.
func LoadBookFromFile(path string) (model.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Book{}, fmt.Errorf("no book data found at %s (run the pipeline's analyze step first)", path)
		}
		return model.Book{}, fmt.Errorf("failed to read book file: %w", err)
	}

	var book model.Book
	if err := json.Unmarshal(stripBOM(data), &book); err != nil {
		return model.Book{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := book.Validate(); err != nil {
		return model.Book{}, fmt.Errorf("invalid book data in %s: %w", path, err)
	}
	return book, nil
}

// LoadProgress reads per-chapter translation counters from the pipeline
// directory. A missing progress file is not an error: the pipeline only
// writes it once translation has started, so callers get an empty map.
func LoadProgress(etvDir string) (map[string]model.ChapterProgress, error) {
	return LoadProgressFromFile(filepath.Join(etvDir, ProgressFileName))
}

// LoadProgressFromFile reads counters from a specific file path.
func LoadProgressFromFile(path string) (map[string]model.ChapterProgress, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]model.ChapterProgress{}, nil
		}
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}

	var counters map[string]model.ChapterProgress
	if err := json.Unmarshal(stripBOM(data), &counters); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if counters == nil {
		counters = map[string]model.ChapterProgress{}
	}
	return counters, nil
}

// Snapshot is one consistent read of everything the pipeline has written.
type Snapshot struct {
	Book     model.Book
	Progress map[string]model.ChapterProgress
}

// LoadSnapshot reads the book and its progress counters concurrently.
func LoadSnapshot(etvDir string) (Snapshot, error) {
	var snap Snapshot

	var g errgroup.Group
	g.Go(func() error {
		book, err := LoadBook(etvDir)
		if err != nil {
			return err
		}
		snap.Book = book
		return nil
	})
	g.Go(func() error {
		progress, err := LoadProgress(etvDir)
		if err != nil {
			return err
		}
		snap.Progress = progress
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// DatabasePath returns the path of the pipeline's SQLite database inside
// the given directory, and whether it exists. When present the database
// supersedes progress.json as the counter source.
func DatabasePath(etvDir string) (string, bool) {
	path := filepath.Join(etvDir, DatabaseFileName)
	info, err := os.Stat(path)
	return path, err == nil && !info.IsDir() && info.Size() > 0
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
