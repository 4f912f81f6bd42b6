// Package ingest serves ingestion runs and collection resets over HTTP.
package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"esgrag/internal/httpapi"
	"esgrag/internal/ingest"
	"esgrag/internal/pipeline"
)

type Runner interface {
	Run(ctx context.Context, src pipeline.Sources) (ingest.Report, error)
	Enqueue(ctx context.Context, src pipeline.Sources, pub pipeline.ItemPublisher) (int, []ingest.Failure, error)
}

type Resetter interface {
	Reset(ctx context.Context) error
}

type Handler struct {
	runner    Runner
	publisher pipeline.ItemPublisher
	resetter  Resetter
	defaults  pipeline.Sources
}

// NewHandler builds the handler. A nil publisher disables queued runs.
// Requests that name no sources use defaults.
func NewHandler(r Runner, pub pipeline.ItemPublisher, reset Resetter, defaults pipeline.Sources) *Handler {
	return &Handler{runner: r, publisher: pub, resetter: reset, defaults: defaults}
}

type Request struct {
	AudioURLs []string `json:"audio_urls"`
	Documents []string `json:"documents"`
	Queue     bool     `json:"queue"`
}

type QueuedResponse struct {
	Queued int              `json:"queued"`
	Failed []ingest.Failure `json:"failed"`
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req Request
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.WriteError(ctx, w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON")
			return
		}
	}

	src := pipeline.Sources{AudioURLs: req.AudioURLs, Documents: req.Documents}
	if len(src.AudioURLs) == 0 && len(src.Documents) == 0 {
		src = h.defaults
	}

	slog.InfoContext(ctx, "ingestion requested", "audio", len(src.AudioURLs), "documents", len(src.Documents), "queue", req.Queue)

	if req.Queue {
		if h.publisher == nil {
			httpapi.WriteError(ctx, w, http.StatusServiceUnavailable, "QUEUE_DISABLED", "queued ingestion is not configured")
			return
		}
		n, failed, err := h.runner.Enqueue(ctx, src, h.publisher)
		if err != nil {
			slog.ErrorContext(ctx, "enqueue failed", "queued", n, "error", err)
			httpapi.WriteError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
			return
		}
		if failed == nil {
			failed = []ingest.Failure{}
		}
		httpapi.WriteData(ctx, w, http.StatusAccepted, QueuedResponse{Queued: n, Failed: failed})
		return
	}

	report, err := h.runner.Run(ctx, src)
	if err != nil {
		slog.ErrorContext(ctx, "ingestion failed", "error", err)
		httpapi.WriteError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if report.Failed == nil {
		report.Failed = []ingest.Failure{}
	}
	httpapi.WriteData(ctx, w, http.StatusOK, report)
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slog.WarnContext(ctx, "resetting collection")

	if err := h.resetter.Reset(ctx); err != nil {
		slog.ErrorContext(ctx, "reset failed", "error", err)
		httpapi.WriteError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
