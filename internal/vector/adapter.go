package vector

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/fault"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/schema"
	"github.com/weaviate/weaviate/entities/models"
)

// SchemaAPI implements SchemaClient with the Weaviate schema endpoints.
type SchemaAPI struct {
	api *schema.API
}

func NewSchemaAPI(client *weaviate.Client) *SchemaAPI {
	return &SchemaAPI{api: client.Schema()}
}

func (s *SchemaAPI) ClassExists(ctx context.Context, className string) (bool, error) {
	return s.api.ClassExistenceChecker().WithClassName(className).Do(ctx)
}

// CreateClass treats a class created concurrently by another process as success.
func (s *SchemaAPI) CreateClass(ctx context.Context, class *models.Class) error {
	err := s.api.ClassCreator().WithClass(class).Do(ctx)
	if hasStatus(err, http.StatusUnprocessableEntity, "already exists") {
		return nil
	}
	return err
}

func (s *SchemaAPI) GetClass(ctx context.Context, className string) (*models.Class, error) {
	return s.api.ClassGetter().WithClassName(className).Do(ctx)
}

func (s *SchemaAPI) AddProperty(ctx context.Context, className string, property *models.Property) error {
	return s.api.PropertyCreator().WithClassName(className).WithProperty(property).Do(ctx)
}

// DeleteClass treats an already missing class as deleted.
func (s *SchemaAPI) DeleteClass(ctx context.Context, className string) error {
	err := s.api.ClassDeleter().WithClassName(className).Do(ctx)
	if hasStatus(err, http.StatusNotFound, "") {
		return nil
	}
	return err
}

func hasStatus(err error, status int, msg string) bool {
	var werr *fault.WeaviateClientError
	if !errors.As(err, &werr) {
		return false
	}
	return werr.StatusCode == status && strings.Contains(werr.Msg, msg)
}
