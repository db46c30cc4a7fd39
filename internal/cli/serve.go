package cli

import (
	"log-analyzer/internal/app"

	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve generated reports over HTTP",
		Long: `Start the report browser on SERVER.PORT:

  GET /reports          list generated reports
  GET /reports/{name}   fetch one report
  GET /metrics          Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer closeLog()

			application, err := app.New(cfg, logger)
			if err != nil {
				logger.Error().Err(err).Msg("failed to initialize app")
				return err
			}
			return application.Serve(cmd.Context())
		},
	}
}
