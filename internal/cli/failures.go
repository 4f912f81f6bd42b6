package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"esgrag/internal/app"
)

func FailuresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "failures",
		Short: "Inspect and retry items recorded in the failure ledger",
	}
	cmd.AddCommand(failuresListCmd())
	cmd.AddCommand(failuresRetryCmd())
	return cmd
}

func failuresListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List failed items, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), cmd, app.WithoutQueue())
			if err != nil {
				return err
			}
			defer e.Close()
			ctx := e.ctx

			entries, err := e.svcs.Failures.List(ctx)
			if err != nil {
				return err
			}
			return printFailures(cmd.OutOrStdout(), entries, jsonOutput(cmd))
		},
	}
}

func failuresRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>...",
		Short: "Re-ingest failed items and drop the ones that succeed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), cmd, app.WithoutQueue())
			if err != nil {
				return err
			}
			defer e.Close()
			ctx := e.ctx

			out := cmd.OutOrStdout()
			for _, id := range args {
				resolved, err := e.svcs.Failures.Retry(ctx, id)
				if err != nil {
					return fmt.Errorf("retry %s: %w", id, err)
				}
				status := "still failing"
				if resolved {
					status = "resolved"
				}
				fmt.Fprintf(out, "%s: %s\n", id, status)
			}
			return nil
		},
	}
}
