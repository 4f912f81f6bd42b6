package failure

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"esgrag/internal/httpapi"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

type RetryResponse struct {
	ID       string `json:"id"`
	Resolved bool   `json:"resolved"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slog.InfoContext(ctx, "listing failed items")

	items, err := h.service.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list failures", "error", err)
		httpapi.WriteError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	if items == nil {
		items = []Failure{}
	}

	httpapi.WriteList(ctx, w, items, len(items))
}

func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	slog.InfoContext(ctx, "retrying failed item", "failure_id", id)

	resolved, err := h.service.Retry(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "failed to retry item", "failure_id", id, "error", err)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			httpapi.WriteError(ctx, w, http.StatusNotFound, "NOT_FOUND", "Failure not found")
		case errors.Is(err, ErrInvalidID):
			httpapi.WriteError(ctx, w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		case errors.Is(err, ErrNotRetryable):
			httpapi.WriteError(ctx, w, http.StatusUnprocessableEntity, "NOT_RETRYABLE", err.Error())
		default:
			httpapi.WriteError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		}
		return
	}

	httpapi.WriteData(ctx, w, http.StatusOK, RetryResponse{ID: id, Resolved: resolved})
}
