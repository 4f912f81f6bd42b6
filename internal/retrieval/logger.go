package retrieval

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"esgrag/internal/content"
)

// QueryLogEntry is one JSON line of the query log.
type QueryLogEntry struct {
	Timestamp     time.Time                   `json:"timestamp"`
	CorrelationID string                      `json:"correlation_id"`
	Query         string                      `json:"query"`
	Limit         int                         `json:"limit"`
	NumResults    int                         `json:"num_results"`
	ByType        map[content.ContentType]int `json:"by_type,omitempty"` // results per content type
	TopDistance   *float32                    `json:"top_distance,omitempty"`
	Duration      time.Duration               `json:"duration_ns"`
	LatencyMs     int64                       `json:"latency_ms"`
	Error         string                      `json:"error,omitempty"`
}

func newQueryLogEntry(query string, limit int, results []content.Result) QueryLogEntry {
	entry := QueryLogEntry{Query: query, Limit: limit, NumResults: len(results)}
	if len(results) == 0 {
		return entry
	}
	d := results[0].Distance
	entry.TopDistance = &d
	entry.ByType = make(map[content.ContentType]int)
	for _, r := range results {
		entry.ByType[r.ContentType]++
	}
	return entry
}

type QueryLogger struct {
	mu     sync.Mutex
	writer io.Writer
	closer io.Closer
}

func NewQueryLogger(w io.Writer) *QueryLogger {
	return &QueryLogger{writer: w}
}

// NewFileQueryLogger appends to path, creating it and its directory as needed.
// Close releases the file.
func NewFileQueryLogger(path string) (*QueryLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304 -- path is from application config, not user input
	if err != nil {
		return nil, err
	}
	return &QueryLogger{writer: f, closer: f}, nil
}

func (l *QueryLogger) Log(entry QueryLogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.LatencyMs = entry.Duration.Milliseconds()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writer == nil {
		return
	}
	if err := json.NewEncoder(l.writer).Encode(entry); err != nil {
		slog.Error("failed to write query log entry", "error", err)
	}
}

// Close stops logging. Entries logged afterwards are dropped.
func (l *QueryLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = nil
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}
