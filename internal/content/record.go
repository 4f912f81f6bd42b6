package content

// Record is what the vector store persists for one item.
type Record struct {
	ID         string
	Vector     []float32
	Properties map[string]any
}

// Result is one retrieval hit. Smaller distance means more similar.
type Result struct {
	ID          string         `json:"id"`
	ContentType ContentType    `json:"content_type"`
	Distance    float32        `json:"distance"`
	Metadata    map[string]any `json:"metadata"`
}

// NewRecord identifies item and pairs it with its embedding.
func NewRecord(item Item, vector []float32) (Record, error) {
	id, err := ID(item)
	if err != nil {
		return Record{}, err
	}
	return Record{ID: id, Vector: vector, Properties: item.Properties()}, nil
}
