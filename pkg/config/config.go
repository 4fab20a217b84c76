// Package config loads binvis settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/binvis/config.toml, falling back to
// ~/.config/binvis/config.toml. A missing file is not an error: [Load]
// returns [Default]. Unknown keys are rejected so typos surface early.
//
//	[render]
//	dims = 3
//	transform = "log1.01"
//	threshold = 24
//	palette = "viridis"
//	formats = ["png", "json"]
//	quality = 85
//
//	[cache]
//	url = "redis://localhost:6379/0"
//	namespace = "binvis:"
//	prefix = "ci:"
//	ttl = "72h"
//
//	[serve]
//	addr = ":8080"
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const appName = "binvis"

// Config is the full set of file-backed settings.
type Config struct {
	Render Render `toml:"render"`
	Cache  Cache  `toml:"cache"`
	Serve  Serve  `toml:"serve"`
}

// Render holds defaults for rendering commands.
type Render struct {
	Dims      int      `toml:"dims"`
	Transform string   `toml:"transform"`
	Threshold int      `toml:"threshold"`
	Palette   string   `toml:"palette"`
	Scale     int      `toml:"scale"`
	Formats   []string `toml:"formats"`
	Yaw       float64  `toml:"yaw"`
	Pitch     float64  `toml:"pitch"`
	Frames    int      `toml:"frames"`
	Quality   int      `toml:"quality"` // jpeg only
}

// Cache selects the artifact cache backend.
type Cache struct {
	Disabled bool          `toml:"disabled"`
	URL      string        `toml:"url"` // redis:// URL; empty uses the file cache
	TTL      time.Duration `toml:"ttl"`

	// Namespace prefixes every Redis key; empty selects "binvis:".
	Namespace string `toml:"namespace"`

	// Prefix scopes artifact keys in every backend, so deployments sharing
	// one cache do not read each other's renders.
	Prefix string `toml:"prefix"`
}

// Serve configures the HTTP server.
type Serve struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Render: Render{
			Dims:      2,
			Transform: "log10",
			Palette:   "gray",
			Scale:     2,
			Formats:   []string{"png"},
			Yaw:       30,
			Pitch:     20,
			Frames:    36,
			Quality:   90,
		},
		Cache: Cache{TTL: 7 * 24 * time.Hour},
		Serve: Serve{Addr: "127.0.0.1:8080"},
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads path on top of Default. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges. Names such as the transform or palette are
// resolved by the packages that own them.
func (c Config) Validate() error {
	r := c.Render
	if r.Dims != 2 && r.Dims != 3 {
		return fmt.Errorf("render.dims must be 2 or 3, got %d", r.Dims)
	}
	if r.Threshold < 0 || r.Threshold > 255 {
		return fmt.Errorf("render.threshold must be in [0,255], got %d", r.Threshold)
	}
	if r.Scale < 1 {
		return fmt.Errorf("render.scale must be positive, got %d", r.Scale)
	}
	if r.Frames < 1 {
		return fmt.Errorf("render.frames must be positive, got %d", r.Frames)
	}
	if r.Quality < 1 || r.Quality > 100 {
		return fmt.Errorf("render.quality must be in [1,100], got %d", r.Quality)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	return nil
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
