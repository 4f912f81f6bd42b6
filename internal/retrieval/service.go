package retrieval

import (
	"context"
	"errors"
	"strings"
	"time"

	"esgrag/internal/content"
	"esgrag/internal/middleware"
)

var ErrInvalidLimit = errors.New("retrieval limit must be positive")

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	NearVector(ctx context.Context, vector []float32, limit int) ([]content.Result, error)
}

type Service struct {
	embedder Embedder
	store    VectorStore
	logger   *QueryLogger
}

func NewService(e Embedder, s VectorStore, l *QueryLogger) *Service {
	return &Service{embedder: e, store: s, logger: l}
}

// Retrieve embeds query and returns up to limit stored items across all content
// types, ordered by ascending distance exactly as the store ranks them.
func (s *Service) Retrieve(ctx context.Context, query string, limit int) (results []content.Result, err error) {
	start := time.Now()

	defer func() {
		if s.logger == nil {
			return
		}
		entry := newQueryLogEntry(query, limit, results)
		entry.Duration = time.Since(start)
		entry.CorrelationID = middleware.GetCorrelationID(ctx)
		if err != nil {
			entry.Error = err.Error()
		}
		s.logger.Log(entry)
	}()

	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if strings.TrimSpace(query) == "" {
		return nil, &content.EmbeddingError{Reason: "empty query"}
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err == nil && len(vec) == 0 {
		err = &content.EmbeddingError{Reason: "empty query vector"}
	}
	if err != nil {
		if !errors.Is(err, content.ErrEmbedding) {
			err = &content.EmbeddingError{Reason: "query", Err: err}
		}
		return nil, err
	}

	results, err = s.store.NearVector(ctx, vec, limit)
	if err != nil {
		if !errors.Is(err, content.ErrStore) {
			err = &content.StoreError{Op: "near vector", Err: err}
		}
		return nil, err
	}

	if results == nil {
		results = []content.Result{}
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
