package worker

import (
	"fmt"

	"esgrag/internal/content"
)

// ItemEnvelope is the message body on the ingest topic: one normalized item.
type ItemEnvelope struct {
	ContentType   content.ContentType `json:"content_type"`
	Properties    map[string]any      `json:"properties"`
	CorrelationID string              `json:"correlation_id,omitempty"`
}

func NewItemEnvelope(item content.Item, correlationID string) ItemEnvelope {
	return ItemEnvelope{
		ContentType:   item.Type(),
		Properties:    item.Properties(),
		CorrelationID: correlationID,
	}
}

// Item re-normalizes the envelope. The envelope content type wins over any
// content_type property.
func (e ItemEnvelope) Item() (content.Item, error) {
	if !e.ContentType.Valid() {
		return nil, fmt.Errorf("%w: %q", content.ErrUnknownContentType, e.ContentType)
	}
	return content.Normalize(e.ContentType, content.RawRecord(e.Properties))
}
