package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/binvis/pkg/pipeline"
	"github.com/matzehuels/binvis/pkg/session"
)

// exploreCommand creates the interactive threshold explorer.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		flags renderFlags
		fresh bool
	)

	cmd := &cobra.Command{
		Use:   "explore [file]",
		Short: "Adjust the threshold interactively",
		Long: `Adjust the threshold interactively.

The file is scanned once. Raising or lowering the threshold, or switching the
brightness transform, re-derives the visible points from the histogram
without reading the file again. 3-D histograms are shown flattened along one
axis; press "a" to change it.

The threshold and transform are remembered per file and restored next time,
unless --threshold, --transform or --fresh is given.`,
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
			restore := !fresh && !cmd.Flags().Changed("threshold") && !cmd.Flags().Changed("transform")
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runExplore(ctx, opts, restore)
		},
	}

	cmd.Flags().BoolVar(&fresh, "fresh", false, "ignore the threshold saved for this file")
	flags.register(cmd)

	return cmd
}

// runExplore scans the input and hands a session to the explorer. The
// final threshold and transform are saved for the next run.
func (c *CLI) runExplore(ctx context.Context, opts pipeline.Options, restore bool) error {
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	scan, err := c.scan(ctx, runner, opts)
	if err != nil {
		return err
	}

	store, err := session.NewFileStore("")
	if err != nil {
		c.Logger.Warn("session state disabled", "err", err)
	}
	if store != nil && restore {
		if st, err := store.Get(ctx, scan.hash, opts.Dims); err != nil {
			c.Logger.Warn("could not restore session", "err", err)
		} else if st != nil {
			opts.Threshold, opts.Transform = st.Threshold, st.Transform
			c.Logger.Debug("restored session", "threshold", st.Threshold, "transform", st.Transform)
		}
	}

	sess, err := session.New(scan.hist, session.Options{
		Threshold: opts.Threshold,
		Transform: opts.Transform,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(NewExploreModel(sess, displayInput(opts.Input)), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("explore: %w", err)
	}

	if store != nil {
		if err := store.Set(ctx, sess.State(scan.hash)); err != nil {
			c.Logger.Warn("could not save session", "err", err)
		}
	}

	snap := sess.Snapshot()
	printInfo("Threshold %s, transform %s, %d points", StyleNumber.Render(fmt.Sprint(snap.Threshold)), StyleHighlight.Render(snap.Transform), len(snap.Points))
	if opts.Input != pipeline.StdinInput {
		printNextStep("Render it", fmt.Sprintf("binvis render --dims %d --threshold %d --transform %s %s", opts.Dims, snap.Threshold, snap.Transform, opts.Input))
	}
	return nil
}
