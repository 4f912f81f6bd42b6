package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"esgrag/internal/app"
)

func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and MCP server",
		Long:  "Serves ingestion, search, ask, failure ledger and MCP endpoints. Set ENABLE_INGEST_WORKER to also consume queued items.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			a, err := app.New(e.cfg, e.svcs, e.logger)
			if err != nil {
				return err
			}
			return a.Run(e.ctx)
		},
	}
}
