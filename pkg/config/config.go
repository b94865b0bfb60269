// Package config handles loading and saving treeline configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/treeline/config.yaml
//   - Data:    ~/.local/share/treeline/ (exports, snapshots)
//   - State:   ~/.local/state/treeline/ (view state cache)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/treeline/pkg/tree"
)

// Outline represents a registered outline in the config.
type Outline struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Duration is a time.Duration that YAML-encodes as a string ("750ms").
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// SelectionConfig controls how selecting nodes behaves. The bool fields
// deliberately have no omitempty: an explicit false must survive a
// save/load round trip even where the default is true.
type SelectionConfig struct {
	Multi             bool   `yaml:"multi"`              // allow more than one selected node
	Propagate         bool   `yaml:"propagate"`          // selecting a branch selects its subtree
	PropagateUpwards  bool   `yaml:"propagate_upwards"`  // ancestors re-derive full/half/none
	PropagateCollapse bool   `yaml:"propagate_collapse"` // collapsing a branch collapses its subtree
	Togglable         bool   `yaml:"togglable"`          // second select deselects
	ExpandOnSelect    bool   `yaml:"expand_on_select"`   // Enter/Space also toggles expansion
	ClickAction       string `yaml:"click_action,omitempty"` // select, focus
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	Theme       string `yaml:"theme,omitempty"`        // color theme name
	ShowNotes   *bool  `yaml:"show_notes,omitempty"`   // render the notes pane (default true)
	ShowGuides  *bool  `yaml:"show_guides,omitempty"`  // render branch guide lines (default true)
	ExpandDepth int    `yaml:"expand_depth,omitempty"` // levels expanded at startup
}

// NotesVisible reports whether the notes pane is enabled.
func (c UIConfig) NotesVisible() bool {
	return c.ShowNotes == nil || *c.ShowNotes
}

// GuidesVisible reports whether branch guide lines are enabled.
func (c UIConfig) GuidesVisible() bool {
	return c.ShowGuides == nil || *c.ShowGuides
}

// DataConfig controls where outline data comes from and how changes to
// it are picked up.
type DataConfig struct {
	Dir          string   `yaml:"dir,omitempty"`           // data directory override
	Watch        *bool    `yaml:"watch,omitempty"`         // reload on source changes (default true)
	Debounce     Duration `yaml:"debounce,omitempty"`      // change coalescing window
	PollInterval Duration `yaml:"poll_interval,omitempty"` // stat interval in polling mode
}

// WatchEnabled reports whether live reload is enabled.
func (c DataConfig) WatchEnabled() bool {
	return c.Watch == nil || *c.Watch
}

// Config is the top-level configuration for treeline.
type Config struct {
	Outlines  []Outline       `yaml:"outlines,omitempty"`
	Favorites map[int]string  `yaml:"favorites,omitempty"` // number key (1-9) -> outline name
	Selection SelectionConfig `yaml:"selection,omitempty"`
	UI        UIConfig        `yaml:"ui,omitempty"`
	Data      DataConfig      `yaml:"data,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Favorites: make(map[int]string),
		Selection: SelectionConfig{
			Multi:            true,
			Propagate:        true,
			PropagateUpwards: true,
			Togglable:        true,
			ClickAction:      string(tree.SelectOnClick),
		},
		UI: UIConfig{
			Theme:       "dracula",
			ExpandDepth: 1,
		},
		Data: DataConfig{
			Debounce:     Duration(500 * time.Millisecond),
			PollInterval: Duration(2 * time.Second),
		},
	}
}

// TreeConfig translates the selection preferences into engine options.
func (c Config) TreeConfig() tree.Config {
	return tree.Config{
		MultiSelect:            c.Selection.Multi,
		PropagateSelect:        c.Selection.Propagate,
		PropagateSelectUpwards: c.Selection.PropagateUpwards,
		PropagateCollapse:      c.Selection.PropagateCollapse,
		TogglableSelect:        c.Selection.Togglable,
		ExpandOnKeyboardSelect: c.Selection.ExpandOnSelect,
		ClickAction:            tree.ClickAction(c.Selection.ClickAction),
	}
}

// ConfigDir returns the XDG config directory for treeline.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "treeline")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "treeline")
}

// DataDir returns the XDG data directory for treeline.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "treeline")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "treeline")
}

// StateDir returns the XDG state directory for treeline.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "treeline")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "treeline")
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

	// Expand ~ in paths
	for i := range cfg.Outlines {
		cfg.Outlines[i].Path = expandHome(cfg.Outlines[i].Path)
	}
	cfg.Data.Dir = expandHome(cfg.Data.Dir)

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

// FindOutline returns the outline with the given name, or nil.
func (c Config) FindOutline(name string) *Outline {
	for i := range c.Outlines {
		if strings.EqualFold(c.Outlines[i].Name, name) {
			return &c.Outlines[i]
		}
	}
	return nil
}

// FavoriteOutline returns the outline assigned to number key n (1-9), or nil.
func (c Config) FavoriteOutline(n int) *Outline {
	name, ok := c.Favorites[n]
	if !ok {
		return nil
	}
	return c.FindOutline(name)
}

// SetFavorite assigns an outline name to a number key (1-9).
func (c *Config) SetFavorite(n int, outlineName string) {
	if c.Favorites == nil {
		c.Favorites = make(map[int]string)
	}
	if outlineName == "" {
		delete(c.Favorites, n)
	} else {
		c.Favorites[n] = outlineName
	}
}

// OutlineFavoriteNumber returns the favorite number (1-9) for an outline name, or 0 if not favorited.
func (c Config) OutlineFavoriteNumber(name string) int {
	for n, oname := range c.Favorites {
		if strings.EqualFold(oname, name) {
			return n
		}
	}
	return 0
}

// ResolvedPath returns the outline path with ~ expanded.
func (o Outline) ResolvedPath() string {
	return expandHome(o.Path)
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
