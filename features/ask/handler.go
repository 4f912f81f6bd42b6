// Package ask serves question answering and raw search over HTTP.
package ask

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"esgrag/internal/answer"
	"esgrag/internal/content"
	"esgrag/internal/httpapi"
	"esgrag/internal/retrieval"
)

type Asker interface {
	Ask(ctx context.Context, query string) (*answer.Answer, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]content.Result, error)
}

type Handler struct {
	asker        Asker
	retriever    Retriever
	defaultLimit int
}

func NewHandler(a Asker, r Retriever, defaultLimit int) *Handler {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &Handler{asker: a, retriever: r, defaultLimit: defaultLimit}
}

type AskRequest struct {
	Question string `json:"question"`
}

type SearchRequest struct {
	Query string `json:"query"`
	Limit *int   `json:"limit,omitempty"`
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(ctx, w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		httpapi.WriteError(ctx, w, http.StatusBadRequest, "VALIDATION_ERROR", "question is required")
		return
	}

	slog.InfoContext(ctx, "answering question", "question", req.Question)

	a, err := h.asker.Ask(ctx, req.Question)
	if err != nil {
		slog.ErrorContext(ctx, "failed to answer question", "error", err)
		httpapi.WriteError(ctx, w, http.StatusBadGateway, "GENERATION_FAILED", err.Error())
		return
	}

	httpapi.WriteData(ctx, w, http.StatusOK, a)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(ctx, w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON")
		return
	}

	limit := h.defaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	results, err := h.retriever.Retrieve(ctx, req.Query, limit)
	if err != nil {
		if errors.Is(err, retrieval.ErrInvalidLimit) || errors.Is(err, content.ErrEmbedding) && strings.TrimSpace(req.Query) == "" {
			httpapi.WriteError(ctx, w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		slog.ErrorContext(ctx, "search failed", "error", err)
		httpapi.WriteError(ctx, w, http.StatusBadGateway, "SEARCH_FAILED", err.Error())
		return
	}

	if results == nil {
		results = []content.Result{}
	}
	httpapi.WriteList(ctx, w, results, len(results))
}
