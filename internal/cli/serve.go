package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/panelgrid/internal/server"
	"github.com/matzehuels/panelgrid/pkg/observability"
	"github.com/matzehuels/panelgrid/pkg/pipeline"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr           string
		logFile        string
		noCache        bool
		allowAnyOrigin bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout API over HTTP and websockets",
		Long: `Serve the layout API.

  POST /v1/layout   compute one request (JSON or YAML)
  GET  /v1/session  websocket session with a dedicated worker
  GET  /metrics     search, worker and cache counters
  GET  /healthz     liveness probe`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Server.Addr
			}
			if !cmd.Flags().Changed("log-file") {
				logFile = cfg.Server.LogFile
			}

			logger := c.Logger
			if logFile != "" {
				w := server.LogFile(logFile)
				defer w.Close()
				logger = newLogger(io.MultiWriter(c.logOut, w), c.Logger.GetLevel())
				printDetail("Logging to %s", logFile)
			}

			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			runner.Logger = logger
			defer runner.Close()

			counters := observability.NewCounters()
			observability.SetSearchHooks(counters)
			observability.SetWorkerHooks(counters)
			observability.SetCacheHooks(counters)
			defer observability.Reset()

			opts := pipeline.OptionsFromConfig(cfg)
			opts.Logger = logger

			srv := server.New(server.Config{
				Addr:           addr,
				Runner:         runner,
				Options:        opts,
				Counters:       counters,
				AllowAnyOrigin: allowAnyOrigin,
				Logger:         logger,
			})
			printInfo("Serving on %s", StyleHighlight.Render(addr))
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&logFile, "log-file", "", "also write logs to this file, rotated by size")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&allowAnyOrigin, "allow-any-origin", false, "accept websocket connections from any origin")

	return cmd
}
