package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"esgrag/internal/content"
	"esgrag/internal/ingest"
)

// snapshotFiles names the per-modality JSON snapshot files.
var snapshotFiles = map[content.ContentType]string{
	content.TypeAudio: "transcriptions.json",
	content.TypeText:  "esg_text.json",
	content.TypeImage: "esg_images.json",
	content.TypeTable: "esg_tables.json",
}

// WriteSnapshot merges items into the snapshot files in dir, one JSON array per
// content type. Stored records are replaced by id and new ones appended; types
// with no items here keep their file as is.
func WriteSnapshot(dir string, items []content.Item) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	groups := make(map[content.ContentType][]content.Item, len(snapshotFiles))
	for _, item := range items {
		groups[item.Type()] = append(groups[item.Type()], item)
	}

	for _, ct := range content.Types {
		if len(groups[ct]) == 0 {
			continue
		}
		path := filepath.Join(dir, snapshotFiles[ct])
		stored, err := readSnapshotFile(path)
		if err != nil {
			return err
		}
		merged, err := mergeRecords(ct, stored, groups[ct])
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(merged, "", "  ")
		if err != nil {
			return fmt.Errorf("encode %s snapshot: %w", ct, err)
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

// mergeRecords keeps stored records that no longer normalize.
func mergeRecords(ct content.ContentType, stored []content.RawRecord, items []content.Item) ([]content.RawRecord, error) {
	merged := make([]content.RawRecord, 0, len(stored)+len(items))
	pos := make(map[string]int, len(stored)+len(items))
	for _, rec := range stored {
		if item, err := content.Normalize(ct, rec); err == nil {
			if id, err := content.ID(item); err == nil {
				pos[id] = len(merged)
			}
		}
		merged = append(merged, rec)
	}

	for _, item := range items {
		id, err := content.ID(item)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s item: %w", ct, err)
		}
		rec := content.RawRecord(item.Properties())
		if i, ok := pos[id]; ok {
			merged[i] = rec
			continue
		}
		pos[id] = len(merged)
		merged = append(merged, rec)
	}
	return merged, nil
}

func readSnapshotFile(path string) ([]content.RawRecord, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- snapshot dir is from configuration
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var records []content.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

// LoadSnapshot reads the snapshot files in dir back into items. Missing files
// are treated as empty; records that no longer normalize are returned as failures.
func LoadSnapshot(dir string) ([]content.Item, []ingest.Failure, error) {
	var items []content.Item
	var failed []ingest.Failure

	for _, ct := range content.Types {
		records, err := readSnapshotFile(filepath.Join(dir, snapshotFiles[ct]))
		if err != nil {
			return nil, nil, err
		}

		for _, rec := range records {
			item, err := content.Normalize(ct, rec)
			if err != nil {
				failed = append(failed, recordFailure(ct, rec, err))
				continue
			}
			items = append(items, item)
		}
	}
	return items, failed, nil
}
