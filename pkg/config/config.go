// Package config handles loading and saving etv configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/etv/config.yaml
//   - Data:    ~/.local/share/etv/ (themes)
//   - State:   ~/.local/state/etv/ (recent books)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// BookEntry represents a registered book in the config.
type BookEntry struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	Minimal          bool    `yaml:"minimal,omitempty"`            // Flat chapter list, no tree structure
	SplitRatio       float64 `yaml:"split_ratio,omitempty"`        // Tree/preview split ratio (0.2-0.8)
	Theme            string  `yaml:"theme,omitempty"`              // auto, dark, light
	AutoExpandActive *bool   `yaml:"auto_expand_active,omitempty"` // Keep the active chapter's path visible
}

// DiscoveryConfig controls auto-discovery of books.
type DiscoveryConfig struct {
	ScanPaths []string `yaml:"scan_paths,omitempty"` // Directories to scan for .etv/
	MaxDepth  int      `yaml:"max_depth,omitempty"`  // How deep to scan (default 3)
}

// WatchConfig controls pipeline directory watching.
type WatchConfig struct {
	Disabled     bool   `yaml:"disabled,omitempty"`
	PollInterval string `yaml:"poll_interval,omitempty"` // Go duration string, polling fallback only
}

// Config is the top-level configuration for etv.
type Config struct {
	Books     []BookEntry     `yaml:"books,omitempty"`
	Favorites map[int]string  `yaml:"favorites,omitempty"` // Number key (1-9) -> book name
	UI        UIConfig        `yaml:"ui,omitempty"`
	Discovery DiscoveryConfig `yaml:"discovery,omitempty"`
	Watch     WatchConfig     `yaml:"watch,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Favorites: make(map[int]string),
		UI: UIConfig{
			SplitRatio: 0.4,
			Theme:      "auto",
		},
		Discovery: DiscoveryConfig{
			MaxDepth: 3,
		},
	}
}

// AutoExpand reports whether the active chapter's ancestors should stay
// expanded; defaults to true when unset.
func (u UIConfig) AutoExpand() bool {
	if u.AutoExpandActive == nil {
		return true
	}
	return *u.AutoExpandActive
}

// ConfigDir returns the XDG config directory for etv.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "etv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "etv")
}

// DataDir returns the XDG data directory for etv.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "etv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "etv")
}

// StateDir returns the XDG state directory for etv.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "etv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "etv")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	// Ensure favorites map is initialized
	if cfg.Favorites == nil {
		cfg.Favorites = make(map[int]string)
	}

	// Expand ~ in book paths
	for i := range cfg.Books {
		cfg.Books[i].Path = expandHome(cfg.Books[i].Path)
	}
	for i := range cfg.Discovery.ScanPaths {
		cfg.Discovery.ScanPaths[i] = expandHome(cfg.Discovery.ScanPaths[i])
	}

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// FindBook returns the registered book with the given name, or nil.
func (c Config) FindBook(name string) *BookEntry {
	for i := range c.Books {
		if strings.EqualFold(c.Books[i].Name, name) {
			return &c.Books[i]
		}
	}
	return nil
}

// FavoriteBook returns the book assigned to number key n (1-9), or nil.
func (c Config) FavoriteBook(n int) *BookEntry {
	name, ok := c.Favorites[n]
	if !ok {
		return nil
	}
	return c.FindBook(name)
}

// SetFavorite assigns a book name to a number key (1-9).
func (c *Config) SetFavorite(n int, bookName string) {
	if c.Favorites == nil {
		c.Favorites = make(map[int]string)
	}
	if bookName == "" {
		delete(c.Favorites, n)
	} else {
		c.Favorites[n] = bookName
	}
}

// ResolvedPath returns the book path with ~ expanded.
func (b BookEntry) ResolvedPath() string {
	return expandHome(b.Path)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
