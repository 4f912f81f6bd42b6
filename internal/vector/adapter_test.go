package vector_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"

	"esgrag/internal/vector"
)

// newSchemaAPI serves /v1/meta like a real Weaviate and hands every other
// request to handler.
func newSchemaAPI(t *testing.T, handler http.HandlerFunc) *vector.SchemaAPI {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"version": "1.25.0"}`))
			return
		}
		handler(w, r)
	}))
	t.Cleanup(ts.Close)

	client, err := weaviate.NewClient(weaviate.Config{Host: ts.Listener.Addr().String(), Scheme: "http"})
	require.NoError(t, err)
	return vector.NewSchemaAPI(client)
}

func TestSchemaAPI_ClassExists(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"exists", http.StatusOK, true},
		{"missing", http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newSchemaAPI(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/schema/RAGESGDocuments", r.URL.Path)
				w.WriteHeader(tt.status)
				if tt.status == http.StatusOK {
					_ = json.NewEncoder(w).Encode(&models.Class{Class: "RAGESGDocuments"})
				}
			})

			exists, err := api.ClassExists(context.Background(), "RAGESGDocuments")
			assert.NoError(t, err)
			assert.Equal(t, tt.want, exists)
		})
	}
}

func TestSchemaAPI_CreateClass(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"created", http.StatusOK, `{}`, false},
		{"created concurrently", http.StatusUnprocessableEntity, `{"error":[{"message":"class name \"RAGESGDocuments\" already exists"}]}`, false},
		{"rejected", http.StatusUnprocessableEntity, `{"error":[{"message":"invalid vectorizer"}]}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newSchemaAPI(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/schema", r.URL.Path)
				assert.Equal(t, "POST", r.Method)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := api.CreateClass(context.Background(), &models.Class{Class: "RAGESGDocuments", Vectorizer: "none"})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSchemaAPI_GetClass(t *testing.T) {
	api := newSchemaAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/schema/RAGESGDocuments", r.URL.Path)
		assert.Equal(t, "GET", r.Method)
		_ = json.NewEncoder(w).Encode(&models.Class{
			Class:      "RAGESGDocuments",
			Properties: []*models.Property{{Name: "content_type", DataType: []string{"text"}}},
		})
	})

	class, err := api.GetClass(context.Background(), "RAGESGDocuments")
	require.NoError(t, err)
	assert.Equal(t, "RAGESGDocuments", class.Class)
	require.Len(t, class.Properties, 1)
	assert.Equal(t, "content_type", class.Properties[0].Name)
}

func TestSchemaAPI_AddProperty(t *testing.T) {
	api := newSchemaAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/schema/RAGESGDocuments/properties", r.URL.Path)
		assert.Equal(t, "POST", r.Method)
		var prop models.Property
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&prop))
		assert.Equal(t, "base64_encoding", prop.Name)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})

	err := api.AddProperty(context.Background(), "RAGESGDocuments", &models.Property{
		Name:     "base64_encoding",
		DataType: []string{"blob"},
	})
	assert.NoError(t, err)
}

func TestSchemaAPI_DeleteClass(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"deleted", http.StatusOK, false},
		{"already gone", http.StatusNotFound, false},
		{"server error", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newSchemaAPI(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/schema/RAGESGDocuments", r.URL.Path)
				assert.Equal(t, "DELETE", r.Method)
				w.WriteHeader(tt.status)
			})

			err := api.DeleteClass(context.Background(), "RAGESGDocuments")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
