package ingest

import "esgrag/internal/content"

// Failure describes one item that was not stored.
type Failure struct {
	Index       int                 `json:"index"`
	ID          string              `json:"id,omitempty"`
	ContentType content.ContentType `json:"content_type,omitempty"`
	Key         []string            `json:"key,omitempty"`
	Kind        content.ErrorKind   `json:"kind"`
	Error       string              `json:"error"`
	// Payload holds the item properties so the failure can be retried later.
	Payload map[string]any `json:"payload,omitempty"`

	err error
}

// Err returns the underlying error when the failure was produced in-process.
func (f Failure) Err() error { return f.err }

// NewFailure builds a Failure for item at index, deriving id and key when possible.
func NewFailure(index int, item content.Item, err error) Failure {
	f := Failure{
		Index: index,
		Kind:  content.KindOf(err),
		Error: err.Error(),
		err:   err,
	}
	if item != nil {
		f.ContentType = item.Type()
		f.Key = item.KeyFields()
		f.Payload = item.Properties()
		if id, idErr := content.ID(item); idErr == nil {
			f.ID = id
		}
	}
	return f
}

// Report summarizes one ingestion call. Every input item is counted exactly once:
// for a report from Ingest, Written + Skipped + NearDuplicates + len(Failed)
// equals the number of items. Pipeline reports also carry failures from before
// ingestion (Index -1); Ingested excludes them, so it equals the item count there.
type Report struct {
	Written        int       `json:"written"`
	Skipped        int       `json:"skipped"`
	NearDuplicates int       `json:"near_duplicates"`
	Failed         []Failure `json:"failed"`
}

func (r Report) Total() int {
	return r.Written + r.Skipped + r.NearDuplicates + len(r.Failed)
}

// Ingested counts the outcomes of items that reached the ingestor.
func (r Report) Ingested() int {
	n := r.Written + r.Skipped + r.NearDuplicates
	for _, f := range r.Failed {
		if f.Index >= 0 {
			n++
		}
	}
	return n
}

// Merge folds other into r. Failure indexes of other are shifted by offset.
func (r *Report) Merge(other Report, offset int) {
	r.Written += other.Written
	r.Skipped += other.Skipped
	r.NearDuplicates += other.NearDuplicates
	for _, f := range other.Failed {
		f.Index += offset
		r.Failed = append(r.Failed, f)
	}
}

// NewRecordFailure builds a Failure for input that never became an item, such
// as an unreachable source or a record missing required fields. Its Index is -1.
func NewRecordFailure(ct content.ContentType, key []string, payload map[string]any, err error) Failure {
	return Failure{
		Index:       -1,
		ContentType: ct,
		Key:         key,
		Kind:        content.KindOf(err),
		Error:       err.Error(),
		Payload:     payload,
		err:         err,
	}
}
