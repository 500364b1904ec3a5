// Package config provides TOML configuration file loading for fuzzypatch.
// The configuration file lives at ~/.config/fuzzypatch/config.toml by
// default, but can be overridden with the --config flag. CLI flags always
// take precedence over file values.
package config

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fwojciec/fuzzypatch/fs"
	"github.com/fwojciec/fuzzypatch/match"
)

// Config represents the configuration file structure.
type Config struct {
	// Root is the directory relative diff paths are resolved against.
	// Default: current working directory
	Root string `toml:"root"`

	// LogLevel controls logging verbosity: debug, info, warn, error.
	// Default: info
	LogLevel string `toml:"log_level"`

	// DryRun computes changes without writing them.
	DryRun bool `toml:"dry_run"`

	// Concurrency is the number of files patched in parallel. 0 and 1 both
	// mean sequential.
	Concurrency int `toml:"concurrency"`

	// Color is one of auto, always, never.
	Color string `toml:"color"`

	Matcher MatcherConfig `toml:"matcher"`
	Watch   WatchConfig   `toml:"watch"`
	Output  OutputConfig  `toml:"output"`
}

// MatcherConfig tunes the match cascade.
type MatcherConfig struct {
	MinAnchorChars int     `toml:"min_anchor_chars"`
	ReconcileRatio float64 `toml:"reconcile_ratio"`
}

// WatchConfig configures the inbox watcher.
type WatchConfig struct {
	// Extensions lists the file suffixes picked up from the inbox.
	Extensions []string `toml:"extensions"`

	// DiffField is the gjson path of the diff inside .json payloads.
	DiffField string `toml:"diff_field"`
}

// OutputConfig configures reporting.
type OutputConfig struct {
	// Format is text or jsonl.
	Format string `toml:"format"`

	// Style is the chroma style for previews.
	Style string `toml:"style"`

	// Journal is a JSONL file outcomes are appended to. Empty disables it.
	Journal string `toml:"journal"`
}

// Default returns a Config with every default filled in.
func Default() *Config {
	return &Config{
		Root:     DefaultRoot,
		LogLevel: DefaultLogLevel,
		Color:    DefaultColor,
		Matcher: MatcherConfig{
			MinAnchorChars: match.DefaultMinAnchorChars,
			ReconcileRatio: match.DefaultReconcileRatio,
		},
		Watch: WatchConfig{
			Extensions: slices.Clone(DefaultExtensions),
			DiffField:  DefaultDiffField,
		},
		Output: OutputConfig{
			Format: DefaultFormat,
		},
	}
}

// Load reads a TOML config file from the given path on top of the defaults.
//
// Behavior:
//   - If path is empty, attempts to load from the default location.
//     Returns the defaults without error if that file doesn't exist.
//   - If path is specified, returns an error if the file doesn't exist.
//   - Returns an error if the file exists but cannot be parsed, or holds
//     invalid values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = fs.DefaultConfigPath()
		if _, err := os.Stat(path); errors.Is(err, iofs.ErrNotExist) {
			return cfg, nil
		}
	} else if _, err := os.Stat(path); errors.Is(err, iofs.ErrNotExist) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first out-of-range value.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if !slices.Contains([]string{"auto", "always", "never"}, c.Color) {
		return fmt.Errorf("invalid color %q: want auto, always or never", c.Color)
	}
	if !slices.Contains([]string{"text", "jsonl"}, c.Output.Format) {
		return fmt.Errorf("invalid format %q: want text or jsonl", c.Output.Format)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("invalid concurrency %d: must not be negative", c.Concurrency)
	}
	if c.Matcher.MinAnchorChars < 0 {
		return fmt.Errorf("invalid min_anchor_chars %d: must not be negative", c.Matcher.MinAnchorChars)
	}
	if c.Matcher.ReconcileRatio <= 0 || c.Matcher.ReconcileRatio > 1 {
		return fmt.Errorf("invalid reconcile_ratio %v: must be in (0, 1]", c.Matcher.ReconcileRatio)
	}
	if c.Watch.DiffField == "" {
		return errors.New("watch.diff_field must not be empty")
	}
	return nil
}

// ParseLevel converts a configured log level name into a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: want debug, info, warn or error", name)
	}
}
