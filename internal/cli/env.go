package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"esgrag/internal/app"
	"esgrag/internal/config"
	"esgrag/internal/logger"
	"esgrag/internal/middleware"
	"esgrag/internal/telemetry"
)

// env is the per-command application graph.
type env struct {
	// ctx carries the correlation id of this command run.
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger
	deps   *app.Dependencies
	svcs   *app.Services
	flush  func()
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	// stdout carries command output
	return logger.New(os.Stderr, level)
}

func setup(ctx context.Context, cmd *cobra.Command, opts ...app.BootstrapOption) (*env, error) {
	log := newLogger(cmd)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	flush, err := telemetry.Init(telemetry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Debug:       verbose,
	})
	if err != nil {
		log.Warn("sentry disabled", "error", err)
		flush = func() {}
	}

	deps, err := app.Bootstrap(ctx, cfg, opts...)
	if err != nil {
		flush()
		return nil, err
	}

	svcs, err := app.NewServices(ctx, cfg, deps, log)
	if err != nil {
		deps.Close()
		flush()
		return nil, err
	}

	ctx = middleware.EnsureCorrelationID(ctx)
	log.DebugContext(ctx, "command ready", "command", cmd.CommandPath())

	return &env{ctx: ctx, cfg: cfg, logger: log, deps: deps, svcs: svcs, flush: flush}, nil
}

func (e *env) Close() {
	e.svcs.Close()
	e.deps.Close()
	e.flush()
}

func jsonOutput(cmd *cobra.Command) bool {
	out, _ := cmd.Flags().GetBool("json")
	return out
}
