package stats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"esgrag/internal/httpapi"
)

type MockCounter struct {
	mock.Mock
	class string
}

func (m *MockCounter) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockCounter) ClassName() string { return m.class }

func TestHandler_GetStats(t *testing.T) {
	tests := []struct {
		name        string
		docs        int
		docsErr     error
		failed      int
		failedErr   error
		wantStatus  int
		wantMessage string
	}{
		{name: "counts both", docs: 100, failed: 5, wantStatus: http.StatusOK},
		{name: "empty collection", wantStatus: http.StatusOK},
		{name: "store down", docsErr: errors.New("weaviate error"), wantStatus: http.StatusInternalServerError, wantMessage: "failed to count documents"},
		{name: "ledger down", docs: 3, failedErr: errors.New("db error"), wantStatus: http.StatusInternalServerError, wantMessage: "failed to count failures"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collection := &MockCounter{class: "RAGESGDocuments"}
			failures := &MockCounter{}
			collection.On("Count", mock.Anything).Return(tt.docs, tt.docsErr)
			if tt.docsErr == nil {
				failures.On("Count", mock.Anything).Return(tt.failed, tt.failedErr)
			}

			w := httptest.NewRecorder()
			NewHandler(failures, collection).GetStats(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantMessage != "" {
				var body httpapi.ErrorEnvelope
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
				assert.Equal(t, tt.wantMessage, body.Error.Message)
				return
			}

			var body struct {
				Data StatsResponse `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, StatsResponse{Collection: "RAGESGDocuments", Documents: tt.docs, FailedItems: tt.failed}, body.Data)
			collection.AssertExpectations(t)
			failures.AssertExpectations(t)
		})
	}
}
