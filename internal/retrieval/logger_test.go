package retrieval

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgrag/internal/content"
)

func TestQueryLogger_ThreadSafety(t *testing.T) {
	var buf bytes.Buffer
	logger := NewQueryLogger(&buf)

	concurrency := 20
	iterations := 50
	var wg sync.WaitGroup

	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				logger.Log(QueryLogEntry{Query: "esg", Duration: time.Millisecond})
			}
		}()
	}
	wg.Wait()

	decoder := json.NewDecoder(&buf)
	count := 0
	for decoder.More() {
		var entry QueryLogEntry
		require.NoError(t, decoder.Decode(&entry), "entry %d", count)
		assert.Equal(t, int64(1), entry.LatencyMs)
		count++
	}
	assert.Equal(t, concurrency*iterations, count)
}

func TestNewFileQueryLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "query.log")
	logger, err := NewFileQueryLogger(path)
	require.NoError(t, err)

	logger.Log(QueryLogEntry{Query: "first"})
	logger.Log(QueryLogEntry{Query: "second"})
	require.NoError(t, logger.Close())
	logger.Log(QueryLogEntry{Query: "dropped"})
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	assert.Len(t, lines, 2)
}

func TestNewQueryLogEntry(t *testing.T) {
	t.Run("no results", func(t *testing.T) {
		entry := newQueryLogEntry("q", 5, nil)
		assert.Equal(t, 0, entry.NumResults)
		assert.Nil(t, entry.TopDistance)
		assert.Nil(t, entry.ByType)
	})

	t.Run("counts per type", func(t *testing.T) {
		entry := newQueryLogEntry("q", 5, []content.Result{
			{ContentType: content.TypeAudio, Distance: 0.1},
			{ContentType: content.TypeImage, Distance: 0.2},
			{ContentType: content.TypeAudio, Distance: 0.5},
		})
		assert.Equal(t, 3, entry.NumResults)
		require.NotNil(t, entry.TopDistance)
		assert.InDelta(t, 0.1, *entry.TopDistance, 1e-6)
		assert.Equal(t, 2, entry.ByType[content.TypeAudio])
		assert.Equal(t, 1, entry.ByType[content.TypeImage])
	})
}

func TestQueryLogger_CloseWithoutFile(t *testing.T) {
	var buf bytes.Buffer
	logger := NewQueryLogger(&buf)
	require.NoError(t, logger.Close())
	logger.Log(QueryLogEntry{Query: "late"})
	assert.Zero(t, buf.Len())
}
