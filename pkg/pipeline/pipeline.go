// Package pipeline provides the core visualization pipeline for binvis.
//
// This package implements the complete read → build → extract → render
// pipeline used by the CLI and the HTTP server. By centralizing this logic,
// both entry points apply the same defaults, validation and caching.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Read: Load the whole input file into memory
//  2. Build: Accumulate the n-gram occupancy histogram
//  3. Extract: Sweep the histogram for cells at or above the threshold
//  4. Render: Encode the point set in the requested formats
//
// Histograms are never persisted. Only rendered artifacts are cached, keyed
// by the input's content hash and every option that changes their bytes.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Input:     "firmware.bin",
//	    Dims:      3,
//	    Threshold: 24,
//	    Formats:   []string{"png", "json"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	png := result.Artifacts["png"]
//
// Run individual stages:
//
//	data, err := runner.ReadInput(opts.Input)
//	h, err := runner.Build(ctx, data, opts)
//	pts, err := runner.Extract(ctx, h, opts)
//	artifacts, err := runner.Render(ctx, cache.Hash(data), h.Dims(), pts, opts)
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/binvis/pkg/brightness"
	"github.com/matzehuels/binvis/pkg/cache"
	bverrors "github.com/matzehuels/binvis/pkg/errors"
	"github.com/matzehuels/binvis/pkg/ngram"
	"github.com/matzehuels/binvis/pkg/points"
	"github.com/matzehuels/binvis/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultDims is the default histogram dimensionality.
	DefaultDims = 2

	// DefaultFormat is the output format when none is requested.
	DefaultFormat = "png"

	// StdinInput reads the input from standard input.
	StdinInput = "-"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the visualization pipeline.
// This struct supports JSON serialization for server responses.
type Options struct {
	// Build options
	Input  string `json:"input,omitempty"`
	Dims   int    `json:"dims,omitempty"`
	Strict bool   `json:"strict,omitempty"` // reject input shorter than the window

	// Extract options
	Threshold uint8  `json:"threshold"`
	Transform string `json:"transform,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Palette string   `json:"palette,omitempty"`
	Scale   int      `json:"scale,omitempty"`
	Yaw     float64  `json:"yaw,omitempty"`
	Pitch   float64  `json:"pitch,omitempty"`
	Frames  int      `json:"frames,omitempty"`
	Quality int      `json:"quality,omitempty"` // jpeg only
	Refresh bool     `json:"refresh,omitempty"` // ignore cached artifacts

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
	Stdin  io.Reader   `json:"-"`

	// Progress, when set, is called as Build accumulates the input.
	Progress func(bytes int64, windows uint64) `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Histogram is the accumulated n-gram histogram.
	Histogram *ngram.Histogram

	// InputHash is the content hash of the input bytes.
	InputHash string

	// Points is the extracted point set.
	Points []points.Point

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	InputBytes  int
	Windows     uint64
	Occupied    int
	PointCount  int
	ReadTime    time.Duration
	BuildTime   time.Duration
	ExtractTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if _, err := render.ParseFormat(f); err != nil {
			return bverrors.Wrap(bverrors.ErrCodeInvalidFormat, err, "invalid format %q", f)
		}
	}
	return nil
}

// ValidateDims checks that dims is 2 or 3.
func ValidateDims(dims int) error {
	if !ngram.Dims(dims).Valid() {
		return bverrors.New(bverrors.ErrCodeInvalidDims, "invalid dims: %d (must be 2 or 3)", dims)
	}
	return nil
}

// ValidateTransform checks that a brightness transform name is known.
func ValidateTransform(name string) error {
	if _, err := brightness.Lookup(name); err != nil {
		return bverrors.Wrap(bverrors.ErrCodeInvalidTransform, err, "invalid transform %q", name)
	}
	return nil
}

// ValidatePalette checks that a palette name is known.
func ValidatePalette(name string) error {
	if _, err := render.LookupPalette(name); err != nil {
		return bverrors.Wrap(bverrors.ErrCodeInvalidPalette, err, "invalid palette %q", name)
	}
	return nil
}

// ParseFormats splits a comma-separated format list, dropping blanks.
func ParseFormats(s string) []string {
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			if f == "jpg" {
				f = string(render.FormatJPEG)
			}
			formats = append(formats, f)
		}
	}
	return formats
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Input == "" {
		return bverrors.New(bverrors.ErrCodeInvalidInput, "input is required")
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	if err := o.ValidateForExtract(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForBuild validates and sets defaults for histogram accumulation.
func (o *Options) ValidateForBuild() error {
	if o.Dims == 0 {
		o.Dims = DefaultDims
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return ValidateDims(o.Dims)
}

// ValidateForExtract validates and sets defaults for point extraction.
func (o *Options) ValidateForExtract() error {
	if o.Transform == "" {
		o.Transform = brightness.Default
	}
	return ValidateTransform(o.Transform)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.Palette == "" {
		o.Palette = render.DefaultPalette
	}
	if o.Scale == 0 {
		o.Scale = render.DefaultScale
	}
	if o.Frames == 0 {
		o.Frames = render.DefaultFrames
	}
	if o.Quality == 0 {
		o.Quality = render.DefaultQuality
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale < 1 || o.Scale > render.MaxScale {
		return bverrors.New(bverrors.ErrCodeInvalidInput, "scale must be in [1,%d], got %d", render.MaxScale, o.Scale)
	}
	if o.Frames < 1 || o.Frames > render.MaxFrames {
		return bverrors.New(bverrors.ErrCodeInvalidInput, "frames must be in [1,%d], got %d", render.MaxFrames, o.Frames)
	}
	if o.Quality < 1 || o.Quality > 100 {
		return bverrors.New(bverrors.ErrCodeInvalidInput, "quality must be in [1,100], got %d", o.Quality)
	}
	return ValidatePalette(o.Palette)
}

// Is3D reports whether the pipeline accumulates byte triples.
func (o *Options) Is3D() bool {
	return o.Dims == int(ngram.Dims3)
}

// ArtifactKeyOpts returns cache key options for one rendered format.
// Camera settings only enter the key for 3-D scenes, quality only for jpeg.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:    format,
		Dims:      o.Dims,
		Transform: o.Transform,
		Threshold: o.Threshold,
		Palette:   o.Palette,
		Scale:     o.Scale,
	}
	if o.Is3D() {
		k.Yaw, k.Pitch, k.Frames = o.Yaw, o.Pitch, o.Frames
	}
	if format == string(render.FormatJPEG) {
		k.Quality = o.Quality
	}
	return k
}

// RenderOptions converts the options into render options.
func (o *Options) RenderOptions() ([]render.Option, error) {
	pal, err := render.LookupPalette(o.Palette)
	if err != nil {
		return nil, bverrors.Wrap(bverrors.ErrCodeInvalidPalette, err, "invalid palette %q", o.Palette)
	}
	return []render.Option{
		render.WithPalette(pal),
		render.WithScale(o.Scale),
		render.WithView(o.Yaw, o.Pitch),
		render.WithFrames(o.Frames),
		render.WithQuality(o.Quality),
	}, nil
}
