// Package config loads scribe server configuration from the workspace.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"
)

// ErrNoConfig reports that the workspace carries no config file; callers
// fall back to Default.
var ErrNoConfig = errors.New("no config file")

var candidates = []string{"scribe.yaml", "scribe.yml", ".scribe.yaml"}

type Config struct {
	// Ignore holds glob ignore rules: bare patterns match any path
	// segment, patterns with a slash match root-relative paths and prune
	// whole directories.
	Ignore []string `yaml:"ignore"`
	// IgnoreExpr holds boolean ignore expressions over path, rel, base
	// and ext.
	IgnoreExpr []string `yaml:"ignoreExpr"`
	Watch      Watch    `yaml:"watch"`
	Log        Log      `yaml:"log"`
}

type Watch struct {
	// Enabled defaults to true when unset.
	Enabled    *bool `yaml:"enabled"`
	DebounceMS int   `yaml:"debounceMs"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Default is the configuration used when the workspace has no config file.
func Default() *Config {
	return &Config{
		Ignore: []string{".git"},
		Watch:  Watch{DebounceMS: 100},
		Log:    Log{Level: "info"},
	}
}

// Load probes root for a config file, trying each candidate name in
// order. A file that exists but does not parse is an error; no file at
// all is ErrNoConfig.
func Load(root string) (*Config, error) {
	for _, name := range candidates {
		d, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		cfg := &Config{}
		if err := yaml.Unmarshal(d, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		if cfg.Watch.DebounceMS == 0 {
			cfg.Watch.DebounceMS = Default().Watch.DebounceMS
		}
		return cfg, nil
	}
	return nil, fmt.Errorf("%w: tried %s", ErrNoConfig, strings.Join(candidates, ", "))
}

// On reports whether the filesystem watcher is enabled.
func (w Watch) On() bool {
	return w.Enabled == nil || *w.Enabled
}

// Debounce returns the watcher quiet period.
func (w Watch) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// ZapLevel parses the configured log level.
func (l Log) ZapLevel() (zap.AtomicLevel, error) {
	if l.Level == "" {
		return zap.NewAtomicLevelAt(zap.InfoLevel), nil
	}
	lvl, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("log level %q: %w", l.Level, err)
	}
	return lvl, nil
}
