package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"esgrag/internal/app"
	"esgrag/internal/config"
	"esgrag/internal/pipeline"
)

type ingestOptions struct {
	audioURLs    []string
	reports      []string
	queue        bool
	fromSnapshot bool
	reset        bool
	noLedger     bool
}

func IngestCmd() *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest talks and reports",
		Long: `Downloads and transcribes the audio sources, extracts paragraphs, figures and
tables from the reports, and stores every item once. Re-running is safe: items
already stored are skipped.

Without --audio-url or --report the configured AUDIO_URLS and REPORT_PATHS are used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.audioURLs, "audio-url", nil, "Audio source URL (repeatable)")
	cmd.Flags().StringSliceVar(&opts.reports, "report", nil, "Report document path (repeatable)")
	cmd.Flags().BoolVar(&opts.queue, "queue", false, "Publish items to NSQ instead of ingesting in-process")
	cmd.Flags().BoolVar(&opts.fromSnapshot, "from-snapshot", false, "Ingest the JSON snapshots in SNAPSHOT_DIR instead of acquiring sources")
	cmd.Flags().BoolVar(&opts.reset, "reset", false, "Drop and recreate the collection first")
	cmd.Flags().BoolVar(&opts.noLedger, "no-ledger", false, "Do not record failures in the Postgres ledger")
	cmd.MarkFlagsMutuallyExclusive("queue", "from-snapshot")

	return cmd
}

func (o ingestOptions) bootstrapOptions() []app.BootstrapOption {
	var out []app.BootstrapOption
	if o.noLedger {
		out = append(out, app.WithoutDatabase())
	}
	if !o.queue {
		out = append(out, app.WithoutQueue())
	}
	return out
}

// sources picks the flag sources, falling back to the configured defaults.
func (o ingestOptions) sources(cfg *config.Config) pipeline.Sources {
	if len(o.audioURLs) == 0 && len(o.reports) == 0 {
		return app.DefaultSources(cfg)
	}
	return pipeline.Sources{AudioURLs: o.audioURLs, Documents: o.reports}
}

func runIngest(cmd *cobra.Command, opts ingestOptions) error {
	e, err := setup(cmd.Context(), cmd, opts.bootstrapOptions()...)
	if err != nil {
		return err
	}
	defer e.Close()
	ctx := e.ctx

	if opts.reset {
		if err := e.svcs.Store.Reset(ctx); err != nil {
			return fmt.Errorf("reset collection: %w", err)
		}
		e.logger.Info("collection reset", "collection", e.svcs.Store.ClassName())
	}

	out := cmd.OutOrStdout()

	switch {
	case opts.queue:
		if e.svcs.Publisher == nil {
			return fmt.Errorf("queued ingestion requires an NSQ producer")
		}
		n, failed, err := e.svcs.Pipeline.Enqueue(ctx, opts.sources(e.cfg), e.svcs.Publisher)
		if err != nil {
			return err
		}
		return printQueued(out, n, failed, jsonOutput(cmd))

	case opts.fromSnapshot:
		items, failed, err := pipeline.LoadSnapshot(e.cfg.SnapshotDir)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		report, err := e.svcs.Pipeline.IngestBatch(ctx, pipeline.Batch{Items: items, Failed: failed})
		if err != nil {
			return err
		}
		return printReport(out, report, jsonOutput(cmd))

	default:
		report, err := e.svcs.Pipeline.Run(ctx, opts.sources(e.cfg))
		if err != nil {
			return err
		}
		return printReport(out, report, jsonOutput(cmd))
	}
}

func ResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate the collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), cmd, app.WithoutDatabase(), app.WithoutQueue())
			if err != nil {
				return err
			}
			defer e.Close()
			ctx := e.ctx

			if err := e.svcs.Store.Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Collection %s reset\n", e.svcs.Store.ClassName())
			return nil
		},
	}
}
