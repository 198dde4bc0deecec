package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DiscoverBooks scans directories for .etv/ subdirectories and returns
// books found. It merges discovered books with existing registered
// books, preferring the registered name when a path matches.
func DiscoverBooks(cfg Config) []BookEntry {
	seen := make(map[string]bool)
	var result []BookEntry

	// Start with registered books
	for _, b := range cfg.Books {
		resolved := b.ResolvedPath()
		seen[resolved] = true
		result = append(result, b)
	}

	// Scan discovery paths
	for _, scanPath := range cfg.Discovery.ScanPaths {
		maxDepth := cfg.Discovery.MaxDepth
		if maxDepth <= 0 {
			maxDepth = 3
		}
		found := scanForBooks(scanPath, maxDepth)
		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				result = append(result, BookEntry{
					Name: filepath.Base(f),
					Path: f,
				})
			}
		}
	}

	return result
}

// scanForBooks walks a directory tree up to maxDepth levels deep,
// looking for directories that contain an .etv/ subdirectory.
func scanForBooks(root string, maxDepth int) []string {
	root = expandHome(root)
	var results []string

	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return filepath.SkipDir
		}
		if !d.IsDir() {
			return nil
		}

		// Check depth
		currentDepth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
		if currentDepth > maxDepth {
			return filepath.SkipDir
		}

		// Skip hidden directories (except .etv itself which we're looking for)
		name := d.Name()
		if strings.HasPrefix(name, ".") && name != ".etv" {
			return filepath.SkipDir
		}

		// Check if this directory contains .etv/
		etvDir := filepath.Join(path, ".etv")
		if info, err := os.Stat(etvDir); err == nil && info.IsDir() {
			results = append(results, path)
			return filepath.SkipDir // Don't recurse into books
		}

		return nil
	})

	return results
}
