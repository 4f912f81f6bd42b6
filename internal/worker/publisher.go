package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"esgrag/internal/config"
	"esgrag/internal/content"
	"esgrag/internal/middleware"
)

// Publisher queues normalized items for the ingest consumers.
type Publisher struct {
	pub   TaskPublisher
	topic string
}

func NewPublisher(pub TaskPublisher) *Publisher {
	return &Publisher{pub: pub, topic: config.TopicIngestItem}
}

// PublishItems sends one envelope per item and returns how many were queued.
// It stops at the first publish error.
func (p *Publisher) PublishItems(ctx context.Context, items []content.Item) (int, error) {
	correlationID := middleware.GetCorrelationID(ctx)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		body, err := json.Marshal(NewItemEnvelope(item, correlationID))
		if err != nil {
			return i, fmt.Errorf("encode item %d: %w", i, err)
		}
		if err := p.pub.Publish(p.topic, body); err != nil {
			return i, fmt.Errorf("publish item %d: %w", i, err)
		}
	}

	slog.InfoContext(ctx, "items queued", "topic", p.topic, "count", len(items))
	return len(items), nil
}
