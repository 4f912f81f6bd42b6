package ingest

import "errors"

var (
	ErrStoreRequired    = errors.New("ingest: vector store is required")
	ErrEmbedderRequired = errors.New("ingest: embedder is required")
	ErrReleased         = errors.New("ingest: ingestor has been released")
)
