// Package failure is the ledger of items that could not be ingested.
package failure

import (
	"encoding/json"
	"time"
)

type Failure struct {
	ID          string          `json:"id"`
	ItemID      string          `json:"item_id,omitempty"`
	ContentType string          `json:"content_type,omitempty"`
	Key         []string        `json:"key"`
	Kind        string          `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	Error       string          `json:"error"`
	Retries     int             `json:"retries"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
