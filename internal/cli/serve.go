package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/critlens/critlens/internal/server"
)

// serveCommand creates the serve command: the HTTP analysis API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analysis API",
		Long: `Run the HTTP analysis API.

Endpoints:
  POST /v1/analyze        submit a trace, receive the chain report
  GET  /v1/analyses/{id}  fetch a previously computed report
  GET  /healthz           liveness check

The server shares the same cache as the CLI, so repeated analyses of the
same trace are served from cache. Configure a redis or mongo backend in
the config file for multi-instance deployments.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Addr
			}

			runner, err := c.newRunner(noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			srv := server.New(runner, addr, c.Logger)
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", fmt.Sprintf("listen address (default %q)", server.DefaultAddr))
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
