package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgrag/internal/middleware"
)

func TestWriteData(t *testing.T) {
	w := httptest.NewRecorder()
	WriteData(context.Background(), w, http.StatusAccepted, map[string]int{"queued": 2})

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"queued":2}}`, w.Body.String())
}

func TestWriteList(t *testing.T) {
	w := httptest.NewRecorder()
	WriteList(context.Background(), w, []string{"a", "b"}, 2)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":["a","b"],"meta":{"count":2}}`, w.Body.String())
}

func TestWriteError(t *testing.T) {
	ctx := middleware.WithCorrelationID(context.Background(), "corr-9")
	w := httptest.NewRecorder()
	WriteError(ctx, w, http.StatusNotFound, "NOT_FOUND", "Failure not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
	assert.Equal(t, "Failure not found", body.Error.Message)
	assert.Equal(t, "corr-9", body.CorrelationID)
}
