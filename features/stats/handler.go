// Package stats reports collection size and ledger backlog.
package stats

import (
	"context"
	"log/slog"
	"net/http"

	"esgrag/internal/httpapi"
)

type FailureCounter interface {
	Count(ctx context.Context) (int, error)
}

type CollectionCounter interface {
	Count(ctx context.Context) (int, error)
	ClassName() string
}

type Handler struct {
	failures   FailureCounter
	collection CollectionCounter
}

func NewHandler(f FailureCounter, c CollectionCounter) *Handler {
	return &Handler{failures: f, collection: c}
}

type StatsResponse struct {
	Collection  string `json:"collection"`
	Documents   int    `json:"documents"`
	FailedItems int    `json:"failed_items"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slog.InfoContext(ctx, "getting stats")

	docs, err := h.collection.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count documents", "error", err)
		httpapi.WriteError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to count documents")
		return
	}

	failed, err := h.failures.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count failures", "error", err)
		httpapi.WriteError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to count failures")
		return
	}

	httpapi.WriteData(ctx, w, http.StatusOK, StatsResponse{
		Collection:  h.collection.ClassName(),
		Documents:   docs,
		FailedItems: failed,
	})
}
