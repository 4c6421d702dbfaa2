// Package jitconfig handles jlazylink.toml JIT configuration, mirroring
// manifest.Manifest/manifest.Load in shape: a flat TOML struct, a
// FindAndLoad that walks up from a start directory, and a handful of
// defaults applied after parsing.
package jitconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the root of jlazylink.toml.
type Config struct {
	Classpath   Classpath   `toml:"classpath"`
	Logging     Logging     `toml:"logging"`
	Cache       Cache       `toml:"cache"`
	InlineCache InlineCache `toml:"inline_cache"`

	// Dir is the directory containing the loaded jlazylink.toml (set at
	// load time, not part of the file itself).
	Dir string `toml:"-"`
}

// Classpath configures where pkg/classmodel looks for class bytes.
type Classpath struct {
	Dirs []string `toml:"dirs"`
	// RemoteURL, if set, configures pkg/remoteclass as a fallback
	// ClassSource consulted after every local directory misses.
	RemoteURL string `toml:"remote_url"`
}

// Logging configures the ambient log.Printf-style output.
type Logging struct {
	Level          string `toml:"level"`
	LogCompilation bool   `toml:"log_compilation"`
}

// Cache configures pkg/stubcache's persisted resolution cache.
type Cache struct {
	Dir        string `toml:"dir"`
	SQLitePath string `toml:"sqlite_path"`
}

// InlineCache configures the polymorphic-inline-cache thresholds a
// consuming dispatch layer would apply on top of this module's resolved
// vtable/itable offsets.
type InlineCache struct {
	MaxPolymorphicEntries int `toml:"max_polymorphic_entries"`
}

const fileName = "jlazylink.toml"

// defaultConfig returns the configuration used when no file is found at
// all, matching manifest.Load's "apply defaults after parsing" style but
// with nothing to parse.
func defaultConfig() Config {
	return Config{
		Classpath: Classpath{Dirs: []string{"."}},
		Logging:   Logging{Level: "info"},
		InlineCache: InlineCache{
			MaxPolymorphicEntries: 6, // matches vm/inline_cache.go's MaxPICEntries
		},
	}
}

// Load parses jlazylink.toml from dir.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, fileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	cfg.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	if len(cfg.Classpath.Dirs) == 0 {
		cfg.Classpath.Dirs = []string{"."}
	}
	if cfg.InlineCache.MaxPolymorphicEntries == 0 {
		cfg.InlineCache.MaxPolymorphicEntries = 6
	}
	return &cfg, nil
}

// FindAndLoad walks up from startDir looking for jlazylink.toml, the way
// manifest.FindAndLoad walks up looking for maggie.toml. Returns a
// default Config (not an error) if none is found anywhere above startDir.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, fileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			cfg := defaultConfig()
			return &cfg, nil
		}
		dir = parent
	}
}

// ClasspathDirPaths returns absolute paths for the configured classpath
// directories.
func (c *Config) ClasspathDirPaths() []string {
	paths := make([]string, 0, len(c.Classpath.Dirs))
	for _, d := range c.Classpath.Dirs {
		if filepath.IsAbs(d) {
			paths = append(paths, d)
			continue
		}
		paths = append(paths, filepath.Join(c.Dir, d))
	}
	return paths
}
