package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/binvis/pkg/brightness"
	"github.com/matzehuels/binvis/pkg/cache"
	bverrors "github.com/matzehuels/binvis/pkg/errors"
	"github.com/matzehuels/binvis/pkg/ngram"
	"github.com/matzehuels/binvis/pkg/observability"
	"github.com/matzehuels/binvis/pkg/points"
	"github.com/matzehuels/binvis/pkg/render"
)

const artifactKeyType = "artifact"

// Runner encapsulates pipeline execution with caching.
// Both the CLI and the server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is how long rendered artifacts stay cached. Zero selects
	// cache.TTLArtifact.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete read → build → extract → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	result := &Result{}

	// Stage 1: Read
	readStart := time.Now()
	data, err := r.Read(opts)
	if err != nil {
		return nil, err
	}
	result.InputHash = cache.Hash(data)
	result.Stats.InputBytes = len(data)
	result.Stats.ReadTime = time.Since(readStart)

	// Stage 2: Build
	buildStart := time.Now()
	h, err := r.Build(ctx, data, opts)
	if err != nil {
		return nil, err
	}
	result.Histogram = h
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.Windows = h.Windows()
	result.Stats.Occupied = h.Occupied()

	logger.Info("accumulated n-grams",
		"bytes", len(data),
		"windows", h.Windows(),
		"occupied", result.Stats.Occupied,
		"duration", result.Stats.BuildTime)

	// Stage 3: Extract
	extractStart := time.Now()
	pts, err := r.Extract(ctx, h, opts)
	if err != nil {
		return nil, err
	}
	result.Points = pts
	result.Stats.ExtractTime = time.Since(extractStart)
	result.Stats.PointCount = len(pts)

	logger.Info("extracted points",
		"threshold", opts.Threshold,
		"transform", opts.Transform,
		"points", len(pts),
		"duration", result.Stats.ExtractTime)

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, result.InputHash, h.Dims(), pts, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ReadInput reads the whole file at path. Errors carry the pathname.
func (r *Runner) ReadInput(path string) ([]byte, error) {
	return r.Read(Options{Input: path})
}

// Read reads opts.Input, taking standard input from opts.Stdin for "-".
func (r *Runner) Read(opts Options) ([]byte, error) {
	if opts.Input == StdinInput {
		in := opts.Stdin
		if in == nil {
			in = os.Stdin
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, bverrors.Wrap(bverrors.ErrCodeInputUnreadable, err, "could not read standard input")
		}
		return data, nil
	}

	data, err := os.ReadFile(opts.Input)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, bverrors.Wrap(bverrors.ErrCodeFileNotFound, err, "could not read file %s", opts.Input)
	case err != nil:
		return nil, bverrors.Wrap(bverrors.ErrCodeInputUnreadable, err, "could not read file %s", opts.Input)
	}
	return data, nil
}

// Build accumulates the histogram for data. Histograms are never cached.
func (r *Runner) Build(ctx context.Context, data []byte, opts Options) (*ngram.Histogram, error) {
	if err := opts.ValidateForBuild(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnBuildStart(ctx, opts.Input, len(data), opts.Dims)
	start := time.Now()

	h, err := accumulate(ctx, data, opts)
	switch {
	case errors.Is(err, ngram.ErrEmptyInput):
		err = bverrors.Wrap(bverrors.ErrCodeEmptyInput, err, "%s has no %d-byte windows", displayName(opts.Input), opts.Dims)
	case errors.Is(err, ngram.ErrInvalidDims):
		err = bverrors.Wrap(bverrors.ErrCodeInvalidDims, err, "invalid dims %d", opts.Dims)
	}

	var windows uint64
	if h != nil {
		windows = h.Windows()
	}
	hooks.OnBuildComplete(ctx, opts.Input, windows, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// buildChunk is how many bytes accumulate between progress reports.
const buildChunk = 1 << 20

// accumulate streams data through an ngram.Builder, reporting progress and
// checking ctx after every chunk.
func accumulate(ctx context.Context, data []byte, opts Options) (*ngram.Histogram, error) {
	dims := ngram.Dims(opts.Dims)
	if opts.Strict && dims.Valid() && len(data) < int(dims) {
		return ngram.BuildStrict(data, dims)
	}
	b, err := ngram.NewBuilder(dims)
	if err != nil {
		return nil, err
	}
	for off := 0; off < len(data); off += buildChunk {
		if _, err := b.Write(data[off:min(off+buildChunk, len(data))]); err != nil {
			return nil, err
		}
		if opts.Progress != nil {
			opts.Progress(b.Bytes(), b.Windows())
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return b.Histogram(), nil
}

// Extract sweeps h with the configured threshold and transform.
func (r *Runner) Extract(ctx context.Context, h *ngram.Histogram, opts Options) ([]points.Point, error) {
	if err := opts.ValidateForExtract(); err != nil {
		return nil, err
	}
	tf, err := brightness.Lookup(opts.Transform)
	if err != nil {
		return nil, bverrors.Wrap(bverrors.ErrCodeInvalidTransform, err, "invalid transform %q", opts.Transform)
	}

	start := time.Now()
	pts := points.Extract(h, opts.Threshold, tf)
	observability.Pipeline().OnExtractComplete(ctx, opts.Threshold, len(pts), time.Since(start))
	return pts, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
// inputHash identifies the source bytes; together with the render options it
// determines every cache key.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, inputHash string, dims ngram.Dims, pts []points.Point, opts Options) (map[string][]byte, bool, error) {
	opts.Dims = int(dims)
	r.applyLogger(&opts)
	if err := opts.ValidateForExtract(); err != nil {
		return nil, false, err
	}
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	cacheHooks := observability.Cache()

	// Try to get all formats from cache
	if !opts.Refresh && inputHash != "" {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(inputHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil {
				opts.Logger.Warn("cache read failed", "format", format, "err", err)
			}
			if err != nil || !hit {
				cacheHooks.OnCacheMiss(ctx, artifactKeyType)
				break
			}
			cacheHooks.OnCacheHit(ctx, artifactKeyType)
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil // All artifacts from cache
		}
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	scene := render.Scene{
		Dims:      dims,
		Threshold: opts.Threshold,
		Transform: opts.Transform,
		Points:    pts,
	}
	rendered, err := RenderScene(scene, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if inputHash != "" {
		for format, data := range rendered {
			key := r.Keyer.ArtifactKey(inputHash, opts.ArtifactKeyOpts(format))
			if err := r.Cache.Set(ctx, key, data, r.ttl()); err != nil {
				opts.Logger.Warn("cache write failed", "format", format, "err", err)
				continue
			}
			cacheHooks.OnCacheSet(ctx, artifactKeyType, len(data))
		}
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, inputHash string, dims ngram.Dims, pts []points.Point, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, inputHash, dims, pts, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return cache.TTLArtifact
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func displayName(input string) string {
	if input == StdinInput || input == "" {
		return "input"
	}
	return fmt.Sprintf("file %s", input)
}
