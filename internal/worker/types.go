package worker

import (
	"context"

	"esgrag/internal/content"
	"esgrag/internal/ingest"
)

type Ingester interface {
	Ingest(ctx context.Context, items []content.Item) (ingest.Report, error)
}

type FailureRecorder interface {
	Record(ctx context.Context, failures []ingest.Failure) error
}

// TaskPublisher is satisfied by *nsq.Producer.
type TaskPublisher interface {
	Publish(topic string, body []byte) error
}
