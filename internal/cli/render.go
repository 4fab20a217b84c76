package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/binvis/pkg/cache"
	bverrors "github.com/matzehuels/binvis/pkg/errors"
	"github.com/matzehuels/binvis/pkg/ngram"
	"github.com/matzehuels/binvis/pkg/pipeline"
	"github.com/matzehuels/binvis/pkg/render"
)

// renderCommand creates the render command for writing artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags   renderFlags
		caching cacheFlags
		output  string
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render the n-gram density of a file",
		Long: `Render the n-gram density of a file.

Every window of consecutive bytes becomes a coordinate in a 256x256 (--dims 2)
or 256x256x256 (--dims 3) histogram. Cells whose brightness reaches
--threshold are drawn. Use "-" to read from standard input.

Rendered artifacts are cached by input content and render options.`,
		Example: `  binvis render firmware.bin
  binvis render -f png,svg,json -o out/firmware firmware.bin
  binvis render --dims 3 -f gif --frames 72 firmware.bin
  cat firmware.bin | binvis render -o firmware.png -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options(cmd, args[0], flags)
			if err != nil {
				return err
			}
			opts.Refresh = refresh
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			if output != "" {
				if err := bverrors.ValidateOutputPath(output); err != nil {
					return err
				}
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runRender(ctx, opts, output, caching)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-render even if cached")
	flags.register(cmd)
	caching.register(cmd)

	return cmd
}

// runRender builds the histogram, renders every requested format and writes
// the artifacts.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string, caching cacheFlags) error {
	runner, err := c.newRunner(ctx, caching)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	scan, err := c.scan(ctx, runner, opts)
	if err != nil {
		return err
	}

	pts, err := runner.Extract(ctx, scan.hist, opts)
	if err != nil {
		return err
	}

	spinner := newSpinner(ctx, c.status, fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	spinner.Start()
	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, scan.hash, scan.hist.Dims(), pts, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	return writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		input:     opts.Input,
		output:    output,
		windows:   scan.hist.Windows(),
		points:    len(pts),
		cacheHit:  cacheHit,
	})
}

// =============================================================================
// Scanning
// =============================================================================

// scanResult is an accumulated histogram and the hash of its source bytes.
type scanResult struct {
	hist *ngram.Histogram
	hash string
	size int
}

// scan reads the input and accumulates its histogram behind a spinner.
// Histograms are never cached: accumulation is a single pass over the bytes.
func (c *CLI) scan(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*scanResult, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	data, err := runner.Read(opts)
	if err != nil {
		return nil, err
	}

	name := displayInput(opts.Input)
	spinner := newSpinner(ctx, c.status, fmt.Sprintf("Scanning %s...", name))
	opts.Progress = func(n int64, windows uint64) {
		spinner.SetMessage(scanMessage(name, n, int64(len(data)), windows))
	}
	spinner.Start()
	h, err := runner.Build(ctx, data, opts)
	if err != nil {
		spinner.StopWithError("Scan failed")
		return nil, err
	}
	spinner.Stop()

	if h.Windows() == 0 {
		printWarning("%s is shorter than the %s window; nothing to show", name, h.Dims())
	}
	prog.done(fmt.Sprintf("Accumulated %d windows of %s", h.Windows(), name))
	logger.Debug("histogram", "dims", h.Dims(), "occupied", h.Occupied(), "bytes", len(data))

	return &scanResult{hist: h, hash: cache.Hash(data), size: len(data)}, nil
}

// scanMessage reports how far a scan has come, e.g.
// "Scanning fw.bin 12.0 MiB / 64.0 MiB · 12582911 windows".
func scanMessage(name string, done, total int64, windows uint64) string {
	return fmt.Sprintf("Scanning %s %s / %s · %d windows", name, formatBytes(done), formatBytes(total), windows)
}

func displayInput(input string) string {
	if input == pipeline.StdinInput {
		return "stdin"
	}
	return filepath.Base(input)
}

// =============================================================================
// Output
// =============================================================================

// artifactWriteParams describes the artifacts of one render run.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
	windows   uint64
	points    int
	cacheHit  bool
}

// writeArtifacts writes each artifact to disk and reports the paths.
// A single format goes to output verbatim; several formats share output as
// a base path and receive their own extensions.
func writeArtifacts(p artifactWriteParams) error {
	base := basePath(p.output, p.input)
	single := len(p.formats) == 1 && p.output != ""

	paths := make([]string, 0, len(p.formats))
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			return fmt.Errorf("missing %s artifact", format)
		}
		path := p.output
		if !single {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			path = base + f.Extension()
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}

	printSuccess("Rendered %s", displayInput(p.input))
	printScanStats(p.windows, p.points, p.cacheHit)
	for _, path := range paths {
		printFile(path)
	}
	if p.input != pipeline.StdinInput {
		printNextStep("Tune the threshold", "binvis explore "+p.input)
	}
	return nil
}

// basePath derives the output path without extension. An explicit output
// loses its extension; otherwise the input name is reused.
func basePath(output, input string) string {
	if output != "" {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	if input == pipeline.StdinInput {
		return "stdin"
	}
	return strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
}
