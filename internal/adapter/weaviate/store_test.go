package weaviate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	adapter "esgrag/internal/adapter/weaviate"
	"esgrag/internal/content"
)

const className = "RAGESGDocuments"

func mockWeaviate(t *testing.T, handler http.HandlerFunc) (*weaviate.Client, *httptest.Server) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.19.0"}`))
			return
		}
		handler(w, r)
	}))
	cfg := weaviate.Config{Host: ts.Listener.Addr().String(), Scheme: "http"}
	client, err := weaviate.NewClient(cfg)
	require.NoError(t, err)
	return client, ts
}

func TestStore_Exists(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		want    bool
		wantErr bool
	}{
		{name: "present", status: http.StatusNoContent, want: true},
		{name: "absent", status: http.StatusNotFound, want: false},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodHead, r.Method)
				assert.Equal(t, "/v1/objects/"+className+"/0f1e2d3c-0000-5000-8000-000000000001", r.URL.Path)
				w.WriteHeader(tt.status)
			})
			defer ts.Close()

			store := adapter.NewStore(client, className)
			ok, err := store.Exists(context.Background(), "0f1e2d3c-0000-5000-8000-000000000001")
			if tt.wantErr {
				assert.ErrorIs(t, err, content.ErrStore)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestStore_Put(t *testing.T) {
	item := content.Text{SourceDocument: "report.pdf", PageNumber: 2, ParagraphNumber: 1, Text: "ESG flows"}
	rec, err := content.NewRecord(item, []float32{0.1, 0.2})
	require.NoError(t, err)

	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/objects", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, rec.ID, body["id"])
		assert.Equal(t, className, body["class"])
		props := body["properties"].(map[string]interface{})
		assert.Equal(t, "ESG flows", props["text"])
		assert.Equal(t, "text", props["content_type"])
		assert.Equal(t, 2.0, props["page_number"])
		assert.Len(t, body["vector"], 2)

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": rec.ID})
	})
	defer ts.Close()

	store := adapter.NewStore(client, className)
	assert.NoError(t, store.Put(context.Background(), rec))
}

func TestStore_Put_AlreadyExists(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":[{"message":"id '8a2f' already exists"}]}`))
	})
	defer ts.Close()

	store := adapter.NewStore(client, className)
	err := store.Put(context.Background(), content.Record{ID: "8a2f", Vector: []float32{1}})
	assert.ErrorIs(t, err, content.ErrAlreadyExists)
	assert.NotErrorIs(t, err, content.ErrStore)
}

func TestStore_Put_Failure(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":[{"message":"disk full"}]}`))
	})
	defer ts.Close()

	store := adapter.NewStore(client, className)
	err := store.Put(context.Background(), content.Record{ID: "x", Vector: []float32{1}})
	assert.ErrorIs(t, err, content.ErrStore)
}

func TestStore_NearVector(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/graphql", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		query := body["query"].(string)
		assert.Contains(t, query, "nearVector")
		assert.Contains(t, query, "limit: 10")
		assert.Contains(t, query, "distance")
		assert.False(t, strings.Contains(query, "base64_encoding"))

		w.WriteHeader(http.StatusOK)
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"Get": map[string]interface{}{
					className: []interface{}{
						map[string]interface{}{
							"content_type":     "text",
							"source_document":  "report.pdf",
							"page_number":      3.0,
							"paragraph_number": 1.0,
							"text":             "ESG fund flows",
							"url":              nil,
							"_additional": map[string]interface{}{
								"id":       "id-1",
								"distance": 0.12,
							},
						},
						map[string]interface{}{
							"content_type":  "audio",
							"url":           "https://www.youtube.com/watch?v=qP1JKWBBy80",
							"transcription": "talk",
							"_additional": map[string]interface{}{
								"id":       "id-2",
								"distance": 0.34,
							},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer ts.Close()

	store := adapter.NewStore(client, className)
	results, err := store.NearVector(context.Background(), []float32{0.1, 0.2}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "id-1", results[0].ID)
	assert.Equal(t, content.TypeText, results[0].ContentType)
	assert.InDelta(t, 0.12, results[0].Distance, 1e-6)
	assert.Equal(t, 3, results[0].Metadata["page_number"])
	assert.NotContains(t, results[0].Metadata, "url")

	assert.Equal(t, content.TypeAudio, results[1].ContentType)
	assert.InDelta(t, 0.34, results[1].Distance, 1e-6)
}

func TestStore_NearVector_Empty(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":{"Get":{"RAGESGDocuments":[]}}}`))
	})
	defer ts.Close()

	store := adapter.NewStore(client, className)
	results, err := store.NearVector(context.Background(), []float32{0.1}, 5)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestStore_NearVector_GraphQLError(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"errors":[{"message":"vector lengths don't match"}]}`))
	})
	defer ts.Close()

	store := adapter.NewStore(client, className)
	_, err := store.NearVector(context.Background(), []float32{0.1}, 5)
	assert.ErrorIs(t, err, content.ErrStore)
}

func TestStore_Count(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/graphql", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"Aggregate": map[string]interface{}{
					className: []interface{}{
						map[string]interface{}{
							"meta": map[string]interface{}{"count": 42.0},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer ts.Close()

	store := adapter.NewStore(client, className)
	count, err := store.Count(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 42, count)
}

func TestStore_Reset(t *testing.T) {
	var calls []string
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/schema/"+className:
			// exists on the first check only
			if len(calls) == 1 {
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]interface{}{"class": className})
				return
			}
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
	defer ts.Close()

	store := adapter.NewStore(client, className)
	require.NoError(t, store.Reset(context.Background()))
	assert.Contains(t, calls, "DELETE /v1/schema/"+className)
	assert.Contains(t, calls, "POST /v1/schema")
}
