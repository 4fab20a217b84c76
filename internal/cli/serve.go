package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matzehuels/binvis/pkg/pipeline"
	"github.com/matzehuels/binvis/pkg/server"
	"github.com/matzehuels/binvis/pkg/session"
)

// serveCommand creates the serve command, which shares one session over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags   renderFlags
		caching cacheFlags
		addr    string
	)

	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Serve a file's density over HTTP",
		Long: `Serve a file's density over HTTP.

The file is scanned once and held in a single session. Clients move the
threshold with PUT /threshold/{value} and fetch renders of the current
point set from GET /render.{png,jpeg,gif,svg,json}.`,
		Example: `  binvis serve firmware.bin
  curl -X PUT localhost:8080/threshold/40
  curl -o out.png localhost:8080/render.png?palette=heat`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options(cmd, args[0], flags)
			if err != nil {
				return err
			}
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Serve.Addr
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runServe(ctx, opts, addr, caching)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "address to listen on")
	flags.register(cmd)
	caching.register(cmd)

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts pipeline.Options, addr string, caching cacheFlags) error {
	runner, err := c.newRunner(ctx, caching)
	if err != nil {
		return err
	}
	defer runner.Close()

	scan, err := c.scan(ctx, runner, opts)
	if err != nil {
		return err
	}

	sess, err := session.New(scan.hist, session.Options{
		Threshold: opts.Threshold,
		Transform: opts.Transform,
	})
	if err != nil {
		return err
	}

	srv := server.New(sess, runner, scan.hash,
		server.WithLogger(c.Logger),
		server.WithDefaults(opts),
	)

	printSuccess("Serving %s", displayInput(opts.Input))
	printKeyValue("Address", StyleHighlight.Render("http://"+addr))
	printKeyValue("Session", StyleDim.Render(sess.ID))

	err = srv.ListenAndServe(ctx, addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
