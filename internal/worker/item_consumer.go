package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/nsqio/go-nsq"

	"esgrag/internal/content"
	"esgrag/internal/ingest"
	"esgrag/internal/middleware"
)

const DefaultMaxAttempts = 5

// ItemConsumer ingests queued items. Retryable failures are requeued by
// returning an error until the message reaches maxAttempts; after that, and
// for permanent failures, the failure goes to the ledger and the message is
// finished.
type ItemConsumer struct {
	ingester    Ingester
	recorder    FailureRecorder
	maxAttempts uint16
}

func NewItemConsumer(ing Ingester, rec FailureRecorder, maxAttempts int) *ItemConsumer {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &ItemConsumer{ingester: ing, recorder: rec, maxAttempts: uint16(maxAttempts)} // #nosec G115 -- bounded by config
}

func (c *ItemConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var env ItemEnvelope
	if err := json.Unmarshal(m.Body, &env); err != nil {
		// Poison pill
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	ctx := context.Background()
	if env.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, env.CorrelationID)
	}

	item, err := env.Item()
	if err != nil {
		slog.ErrorContext(ctx, "dropping invalid item", "content_type", env.ContentType, "error", err)
		payload := env.Properties
		if payload == nil {
			payload = map[string]any{}
		}
		payload[content.PropContentType] = string(env.ContentType)
		c.record(ctx, ingest.NewRecordFailure(env.ContentType, nil, payload, err))
		return nil
	}

	report, err := c.ingester.Ingest(ctx, []content.Item{item})
	if err != nil {
		return err
	}
	if len(report.Failed) == 0 {
		return nil
	}

	f := report.Failed[0]
	if f.Kind.Retryable() && m.Attempts < c.maxAttempts {
		slog.WarnContext(ctx, "ingest failed, requeueing", "id", f.ID, "kind", f.Kind, "attempt", m.Attempts, "error", f.Error)
		if e := f.Err(); e != nil {
			return e
		}
		return errors.New(f.Error)
	}

	slog.ErrorContext(ctx, "ingest failed permanently", "id", f.ID, "kind", f.Kind, "attempts", m.Attempts, "error", f.Error)
	c.record(ctx, f)
	return nil
}

func (c *ItemConsumer) record(ctx context.Context, f ingest.Failure) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(ctx, []ingest.Failure{f}); err != nil {
		slog.ErrorContext(ctx, "failed to record failure", "id", f.ID, "error", err)
	}
}
