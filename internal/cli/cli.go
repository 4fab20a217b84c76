// Package cli implements the binvis command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/gogpu/gg"
	"github.com/spf13/cobra"

	"github.com/matzehuels/binvis/pkg/cache"
	"github.com/matzehuels/binvis/pkg/config"
	bverrors "github.com/matzehuels/binvis/pkg/errors"
	"github.com/matzehuels/binvis/pkg/observability"
	"github.com/matzehuels/binvis/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "binvis"

	// defaultTopN is how many n-grams stats lists by default.
	defaultTopN = 10
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
	status     io.Writer // spinner output, shared with the logger
}

// New creates a new CLI instance with a default logger.
// The logger also receives diagnostics from the raster backend.
func New(w io.Writer, level log.Level) *CLI {
	logger := newLogger(w, level)
	gg.SetLogger(slog.New(logger))
	return &CLI{
		Logger: logger,
		Config: config.Default(),
		status: w,
	}
}

// SetLogLevel updates the logger's level. At debug level every pipeline,
// cache and HTTP event is logged as well.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= LogDebug {
		observability.NewLogHooks(c.Logger).Register()
	}
}

// loadConfig reads the config file named by --config, or the default one.
func (c *CLI) loadConfig() error {
	path := c.configPath
	if path == "" {
		p, err := config.Path()
		if err != nil {
			c.Logger.Debug("no config path", "err", err)
			return nil
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.Config = cfg
	c.Logger.Debug("config loaded", "path", path)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// cacheFlags are the cache selection flags shared by render and serve.
type cacheFlags struct {
	noCache  bool
	cacheURL string
}

func (f *cacheFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().StringVar(&f.cacheURL, "cache-url", "", "redis:// URL of a shared artifact cache")
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, f cacheFlags) (*pipeline.Runner, error) {
	backend, err := c.newCache(ctx, f)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if prefix := c.Config.Cache.Prefix; prefix != "" {
		keyer = cache.NewScopedKeyer(nil, prefix)
	}
	r := pipeline.NewRunner(backend, keyer, c.Logger)
	r.TTL = c.Config.Cache.TTL
	return r, nil
}

// newCache selects the artifact cache: none, Redis when a URL is configured,
// otherwise the local file cache.
func (c *CLI) newCache(ctx context.Context, f cacheFlags) (cache.Cache, error) {
	if f.noCache || c.Config.Cache.Disabled {
		return cache.NewNullCache(), nil
	}

	url := f.cacheURL
	if url == "" {
		url = c.Config.Cache.URL
	}
	if url != "" {
		if err := bverrors.ValidateCacheURL(url); err != nil {
			return nil, err
		}
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{URL: url, Namespace: c.Config.Cache.Namespace})
		if err != nil {
			return nil, bverrors.Wrap(bverrors.ErrCodeCacheUnavailable, err, "could not connect to cache")
		}
		c.Logger.Debug("using redis cache")
		return rc, nil
	}

	dir, err := cacheDir()
	if err != nil {
		c.Logger.Debug("file cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/binvis/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// renderFlags are the flags that shape extraction and rendering.
type renderFlags struct {
	formats   string
	dims      int
	threshold int
	transform string
	palette   string
	scale     int
	yaw       float64
	pitch     float64
	frames    int
	quality   int
	strict    bool
}

// register adds the flags with defaults taken from the built-in config.
// Config file values are applied later, in options, for flags left unset.
func (f *renderFlags) register(cmd *cobra.Command) {
	d := config.Default().Render
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): png (default), jpeg, gif, svg, json (comma-separated)")
	cmd.Flags().IntVar(&f.dims, "dims", d.Dims, "window size: 2 (byte pairs) or 3 (byte triples)")
	cmd.Flags().IntVarP(&f.threshold, "threshold", "t", d.Threshold, "minimum brightness to show (0-255)")
	cmd.Flags().StringVar(&f.transform, "transform", d.Transform, "brightness transform: linear, log10, log1.01")
	cmd.Flags().StringVar(&f.palette, "palette", d.Palette, "color palette: gray, heat, viridis")
	cmd.Flags().IntVar(&f.scale, "scale", d.Scale, "pixels per histogram cell")
	cmd.Flags().Float64Var(&f.yaw, "yaw", d.Yaw, "3-D camera yaw in degrees")
	cmd.Flags().Float64Var(&f.pitch, "pitch", d.Pitch, "3-D camera pitch in degrees")
	cmd.Flags().IntVar(&f.frames, "frames", d.Frames, "frames in a 3-D gif turntable")
	cmd.Flags().IntVar(&f.quality, "quality", d.Quality, "jpeg quality (1-100)")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "fail on input shorter than the window")
	registerRenderCompletions(cmd)
}

// options merges config values and explicitly set flags into pipeline options.
func (c *CLI) options(cmd *cobra.Command, input string, f renderFlags) (pipeline.Options, error) {
	r := c.Config.Render
	changed := cmd.Flags().Changed

	if changed("dims") {
		r.Dims = f.dims
	}
	if changed("threshold") {
		r.Threshold = f.threshold
	}
	if changed("transform") {
		r.Transform = f.transform
	}
	if changed("palette") {
		r.Palette = f.palette
	}
	if changed("scale") {
		r.Scale = f.scale
	}
	if changed("yaw") {
		r.Yaw = f.yaw
	}
	if changed("pitch") {
		r.Pitch = f.pitch
	}
	if changed("frames") {
		r.Frames = f.frames
	}
	if changed("quality") {
		r.Quality = f.quality
	}
	if changed("format") {
		r.Formats = pipeline.ParseFormats(f.formats)
	}

	if r.Threshold < 0 || r.Threshold > 255 {
		return pipeline.Options{}, bverrors.New(bverrors.ErrCodeInvalidThreshold,
			"invalid threshold: %d (must be 0-255)", r.Threshold)
	}

	return pipeline.Options{
		Input:     input,
		Dims:      r.Dims,
		Strict:    f.strict,
		Threshold: uint8(r.Threshold),
		Transform: r.Transform,
		Formats:   r.Formats,
		Palette:   r.Palette,
		Scale:     r.Scale,
		Yaw:       r.Yaw,
		Pitch:     r.Pitch,
		Frames:    r.Frames,
		Quality:   r.Quality,
		Logger:    c.Logger,
		Stdin:     cmd.InOrStdin(),
	}, nil
}
