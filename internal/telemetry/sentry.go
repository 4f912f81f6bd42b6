// Package telemetry reports ingestion failures to Sentry.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"

	"esgrag/internal/ingest"
	"esgrag/internal/middleware"
)

const serviceName = "esgrag"

type Config struct {
	DSN         string
	Environment string
	Debug       bool
}

// Init configures the global Sentry client and returns a flush function.
// An empty DSN or a failed init leaves reporting disabled.
func Init(cfg Config) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Debug:       cfg.Debug,
		ServerName:  serviceName,
	})
	if err != nil {
		slog.Warn("sentry: failed to initialize, continuing without it", "error", err)
		return func() {}, nil
	}

	slog.Info("sentry initialized", "environment", cfg.Environment)
	return func() { sentry.Flush(5 * time.Second) }, nil
}

func hubFrom(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

// CaptureFailures sends one event per failure, tagged with its kind and type.
func CaptureFailures(ctx context.Context, failures []ingest.Failure) {
	hub := hubFrom(ctx)
	if hub.Client() == nil {
		return
	}
	correlationID := middleware.GetCorrelationID(ctx)

	for _, f := range failures {
		err := f.Err()
		if err == nil {
			err = errors.New(f.Error)
		}
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("kind", string(f.Kind))
			scope.SetTag("content_type", string(f.ContentType))
			scope.SetTag("correlation_id", correlationID)
			scope.SetContext("item", sentry.Context{
				"id":    f.ID,
				"index": f.Index,
				"key":   f.Key,
			})
			hub.CaptureException(err)
		})
	}
}

type Recorder interface {
	Record(ctx context.Context, failures []ingest.Failure) error
}

// CapturingRecorder reports failures to Sentry before handing them to next.
type CapturingRecorder struct {
	next Recorder
}

func NewCapturingRecorder(next Recorder) *CapturingRecorder {
	return &CapturingRecorder{next: next}
}

func (r *CapturingRecorder) Record(ctx context.Context, failures []ingest.Failure) error {
	CaptureFailures(ctx, failures)
	if r.next == nil {
		return nil
	}
	return r.next.Record(ctx, failures)
}
