package weaviate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/fault"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"esgrag/internal/content"
	"esgrag/internal/vector"
)

type Store struct {
	client    *weaviate.Client
	className string
	schema    vector.SchemaClient
}

func NewStore(client *weaviate.Client, className string) *Store {
	return &Store{
		client:    client,
		className: className,
		schema:    vector.NewSchemaAPI(client),
	}
}

func (s *Store) ClassName() string { return s.className }

func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := vector.EnsureSchema(ctx, s.schema, s.className); err != nil {
		return &content.StoreError{Op: "ensure schema", Err: err}
	}
	return nil
}

// Reset drops every stored item and recreates the empty collection.
func (s *Store) Reset(ctx context.Context) error {
	if err := vector.ResetSchema(ctx, s.schema, s.className); err != nil {
		return &content.StoreError{Op: "reset", Err: err}
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	ok, err := s.client.Data().Checker().
		WithClassName(s.className).
		WithID(id).
		Do(ctx)
	if err != nil {
		return false, &content.StoreError{Op: "exists", Err: err}
	}
	return ok, nil
}

// Put creates the object under its deterministic id. Weaviate rejects a second
// create for the same id, which is reported as content.ErrAlreadyExists.
func (s *Store) Put(ctx context.Context, rec content.Record) error {
	_, err := s.client.Data().Creator().
		WithClassName(s.className).
		WithID(rec.ID).
		WithProperties(rec.Properties).
		WithVector(rec.Vector).
		Do(ctx)
	if err == nil {
		return nil
	}
	if isAlreadyExists(err) {
		return fmt.Errorf("%w: %s", content.ErrAlreadyExists, rec.ID)
	}
	return &content.StoreError{Op: "put", Err: err}
}

func isAlreadyExists(err error) bool {
	var werr *fault.WeaviateClientError
	if !errors.As(err, &werr) {
		return false
	}
	return werr.StatusCode == http.StatusUnprocessableEntity && strings.Contains(werr.Msg, "already exists")
}

// resultFields excludes base64_encoding: image bytes are never needed to render context.
func resultFields() []graphql.Field {
	fields := []graphql.Field{
		{Name: content.PropContentType},
		{Name: content.PropURL},
		{Name: content.PropAudioPath},
		{Name: content.PropTranscription},
		{Name: content.PropSourceDocument},
		{Name: content.PropPageNumber},
		{Name: content.PropParagraphNumber},
		{Name: content.PropText},
		{Name: content.PropImagePath},
		{Name: content.PropDescription},
		{Name: content.PropTableContent},
		{Name: "_additional", Fields: []graphql.Field{{Name: "id"}, {Name: "distance"}}},
	}
	return fields
}

var intProps = map[string]bool{
	content.PropPageNumber:      true,
	content.PropParagraphNumber: true,
}

// NearVector returns up to limit items ordered by ascending vector distance.
func (s *Store) NearVector(ctx context.Context, vec []float32, limit int) ([]content.Result, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vec)

	res, err := s.client.GraphQL().Get().
		WithClassName(s.className).
		WithNearVector(nearVector).
		WithLimit(limit).
		WithFields(resultFields()...).
		Do(ctx)
	if err != nil {
		return nil, &content.StoreError{Op: "near vector", Err: err}
	}

	if len(res.Errors) > 0 {
		return nil, &content.StoreError{Op: "near vector", Err: fmt.Errorf("graphql error: %v", res.Errors[0].Message)}
	}

	results := []content.Result{}
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return results, nil
	}
	objects, ok := data[s.className].([]interface{})
	if !ok {
		return results, nil
	}

	for _, o := range objects {
		props, ok := o.(map[string]interface{})
		if !ok {
			continue
		}
		result := content.Result{Metadata: make(map[string]any)}

		for k, v := range props {
			if k == "_additional" || v == nil {
				continue
			}
			if f, ok := v.(float64); ok && intProps[k] {
				result.Metadata[k] = int(f)
				continue
			}
			result.Metadata[k] = v
		}

		if ct, ok := props[content.PropContentType].(string); ok {
			result.ContentType = content.ContentType(ct)
		}

		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			if id, ok := additional["id"].(string); ok {
				result.ID = id
			}
			if d, ok := additional["distance"].(float64); ok {
				result.Distance = float32(d)
			}
		}

		results = append(results, result)
	}

	return results, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	meta := graphql.Field{
		Name:   "meta",
		Fields: []graphql.Field{{Name: "count"}},
	}

	res, err := s.client.GraphQL().Aggregate().
		WithClassName(s.className).
		WithFields(meta).
		Do(ctx)
	if err != nil {
		return 0, &content.StoreError{Op: "count", Err: err}
	}
	if len(res.Errors) > 0 {
		return 0, &content.StoreError{Op: "count", Err: fmt.Errorf("graphql error: %v", res.Errors[0].Message)}
	}

	if data, ok := res.Data["Aggregate"].(map[string]interface{}); ok {
		if classData, ok := data[s.className].([]interface{}); ok && len(classData) > 0 {
			if first, ok := classData[0].(map[string]interface{}); ok {
				if m, ok := first["meta"].(map[string]interface{}); ok {
					if count, ok := m["count"].(float64); ok {
						return int(count), nil
					}
				}
			}
		}
	}
	return 0, nil
}
