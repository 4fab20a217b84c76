// Package cache stores rendered visualization artifacts.
//
// Rendering a point set to PNG, GIF or SVG is the slowest step of a run once
// the histogram exists, and the output is a pure function of the input bytes
// and the render options. The pipeline therefore caches artifacts under a key
// derived from the input's content hash and every option that affects the
// output. Histograms themselves are never cached: they are rebuilt from the
// input on every run.
//
// # Backends
//
//   - [NullCache]: caching disabled
//   - [FileCache]: one JSON file per entry under the XDG cache directory
//   - [RedisCache]: shared cache for multiple binvis instances
//
// # Keys
//
// A [Keyer] turns (input hash, options) into a key. [ScopedKeyer] prefixes
// another keyer so several tenants can share one Redis database.
package cache

import (
	"context"
	"time"
)

// TTLArtifact is how long rendered artifacts stay cached.
const TTLArtifact = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiration.
type Cache interface {
	// Get returns the cached value and whether it was found.
	// A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ArtifactKeyOpts lists every render option that changes an artifact's bytes.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	Dims      int     `json:"dims"`
	Transform string  `json:"transform"`
	Threshold uint8   `json:"threshold"`
	Palette   string  `json:"palette"`
	Scale     int     `json:"scale"`
	Yaw       float64 `json:"yaw,omitempty"`
	Pitch     float64 `json:"pitch,omitempty"`
	Frames    int     `json:"frames,omitempty"`
	Quality   int     `json:"quality,omitempty"`
}

// Keyer generates cache keys.
type Keyer interface {
	// ArtifactKey returns the key for one rendered artifact of the input
	// whose content hash is inputHash.
	ArtifactKey(inputHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer builds keys of the form "artifact:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey hashes the input hash together with opts.
func (DefaultKeyer) ArtifactKey(inputHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", inputHash, opts)
}
