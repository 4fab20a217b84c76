package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/binvis/pkg/brightness"
	"github.com/matzehuels/binvis/pkg/ngram"
	"github.com/matzehuels/binvis/pkg/pipeline"
	"github.com/matzehuels/binvis/pkg/points"
	"github.com/matzehuels/binvis/pkg/stats"
)

// statsCommand creates the stats command for summarizing a histogram.
func (c *CLI) statsCommand() *cobra.Command {
	var (
		flags  renderFlags
		topN   int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Summarize the n-gram distribution of a file",
		Long: `Summarize the n-gram distribution of a file.

Reports how many windows were counted, how much of the n-gram space they
occupy, the Shannon entropy of the distribution in bits, and the most
frequent n-grams. Compressed or encrypted data sits close to the maximum
entropy.

The occupied cells are also binned by brightness under --transform, and the
number of points --threshold would keep is reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options(cmd, args[0], flags)
			if err != nil {
				return err
			}
			if err := opts.ValidateForBuild(); err != nil {
				return err
			}
			if err := opts.ValidateForExtract(); err != nil {
				return err
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runStats(ctx, cmd.OutOrStdout(), opts, topN, asJSON)
		},
	}

	cmd.Flags().IntVarP(&topN, "top", "n", defaultTopN, "number of most frequent n-grams to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	flags.register(cmd)

	return cmd
}

func (c *CLI) runStats(ctx context.Context, w io.Writer, opts pipeline.Options, topN int, asJSON bool) error {
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	scan, err := c.scan(ctx, runner, opts)
	if err != nil {
		return err
	}

	tf, err := brightness.Lookup(opts.Transform)
	if err != nil {
		return err
	}
	s := stats.Compute(scan.hist, topN)
	s.AddBrightness(points.NewExtractor(scan.hist, tf), opts.Transform, opts.Threshold)
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	printSuccess("Summary of %s", displayInput(opts.Input))
	printKeyValue("Bytes", fmt.Sprintf("%s (%s)", StyleNumber.Render(strconv.Itoa(scan.size)), formatBytes(int64(scan.size))))
	printKeyValue("Windows", StyleNumber.Render(strconv.FormatUint(s.Windows, 10)))
	printKeyValue("Occupied", fmt.Sprintf("%s of %d (%.2f%%)", StyleNumber.Render(strconv.Itoa(s.Occupied)), s.Cells, 100*s.Coverage))
	printKeyValue("Entropy", fmt.Sprintf("%s of %.0f bits", StyleNumber.Render(fmt.Sprintf("%.3f", s.Entropy)), s.MaxEntropy))
	printKeyValue("Max count", fmt.Sprintf("%s at %s", StyleNumber.Render(strconv.FormatUint(uint64(s.Max), 10)), coordLabel(s.MaxAt, s.Dims)))
	printKeyValue("Mean", fmt.Sprintf("%.2f", s.Mean))
	printKeyValue("Median", fmt.Sprintf("%.2f", s.Median))
	printKeyValue("Std dev", fmt.Sprintf("%.2f", s.StdDev))
	if b := s.Brightness; b != nil {
		printKeyValue("Points", fmt.Sprintf("%s at threshold %d (%s)", StyleNumber.Render(strconv.Itoa(b.Points)), b.Threshold, b.Transform))
		printKeyValue("Levels", levelBar(b.Levels, 64))
	}

	if len(s.Top) > 0 {
		printNewline()
		fmt.Fprintln(w, topTable(s).Render())
	}
	return nil
}

// topTable renders the most frequent n-grams.
func topTable(s stats.Summary) *table.Table {
	rows := make([][]string, len(s.Top))
	for i, e := range s.Top {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			coordLabel(e.Coord, s.Dims),
			strconv.FormatUint(uint64(e.Count), 10),
			fmt.Sprintf("%.2f%%", 100*e.Share),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "N-gram", "Count", "Share").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 1:
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
}

// coordLabel formats an n-gram as hex bytes with printable ASCII alongside.
func coordLabel(c ngram.Coord, dims ngram.Dims) string {
	bs := []byte{c.X, c.Y}
	if dims == ngram.Dims3 {
		bs = append(bs, c.Z)
	}
	hex := fmt.Sprintf("% x", bs)
	text := make([]byte, len(bs))
	for i, b := range bs {
		if b >= 0x20 && b < 0x7f {
			text[i] = b
		} else {
			text[i] = '.'
		}
	}
	return fmt.Sprintf("%s %q", hex, text)
}
