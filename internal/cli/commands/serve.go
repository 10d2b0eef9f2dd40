package commands

import (
	"github.com/spf13/cobra"

	"github.com/lineagekit/lineagekit/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the lineage HTTP server",
		Long: `Load the table specs, build the lineage graph, and serve it over HTTP.

With --watch enabled, spec file changes trigger a rebuild; a failed
rebuild keeps the previous graph in place.`,
		Example: `  # Serve the default project directory on port 8080
  lineagekit serve

  # Serve a specific directory with file watching
  lineagekit serve --project-dir ./tables --watch

  # Serve on a different port
  lineagekit serve --port 9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			logger := getLogger(cmd.Context())

			proj, err := loadProject(cmd.Context())
			if err != nil {
				return err
			}

			srv := server.New(server.Config{
				Project: proj,
				Port:    cfg.Port,
				Watch:   cfg.Watch,
				Logger:  logger,
			})
			return srv.Serve(cmd.Context())
		},
	}

	return cmd
}
