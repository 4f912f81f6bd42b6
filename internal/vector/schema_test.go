package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"
)

type MockSchemaClient struct {
	CreatedClass    *models.Class
	ExistingClass   *models.Class
	AddedProperties []*models.Property
	Deleted         []string
	ExistsErr       error
}

func (m *MockSchemaClient) ClassExists(ctx context.Context, className string) (bool, error) {
	if m.ExistsErr != nil {
		return false, m.ExistsErr
	}
	return m.ExistingClass != nil, nil
}

func (m *MockSchemaClient) CreateClass(ctx context.Context, class *models.Class) error {
	m.CreatedClass = class
	return nil
}

func (m *MockSchemaClient) GetClass(ctx context.Context, className string) (*models.Class, error) {
	return m.ExistingClass, nil
}

func (m *MockSchemaClient) AddProperty(ctx context.Context, className string, property *models.Property) error {
	m.AddedProperties = append(m.AddedProperties, property)
	return nil
}

func (m *MockSchemaClient) DeleteClass(ctx context.Context, className string) error {
	m.Deleted = append(m.Deleted, className)
	m.ExistingClass = nil
	return nil
}

func TestEnsureSchema_CreatesClass(t *testing.T) {
	client := &MockSchemaClient{}
	require.NoError(t, EnsureSchema(context.Background(), client, "RAGESGDocuments"))
	require.NotNil(t, client.CreatedClass)

	assert.Equal(t, "RAGESGDocuments", client.CreatedClass.Class)
	assert.Equal(t, "none", client.CreatedClass.Vectorizer)

	expected := map[string]string{
		"source_document":  "text",
		"page_number":      "int",
		"paragraph_number": "int",
		"base64_encoding":  "blob",
		"transcription":    "text",
		"content_type":     "text",
	}
	got := make(map[string]string)
	for _, prop := range client.CreatedClass.Properties {
		got[prop.Name] = prop.DataType[0]
	}
	assert.Len(t, got, 12)
	for name, dt := range expected {
		assert.Equal(t, dt, got[name], "property %s", name)
	}
}

func TestEnsureSchema_AddsMissingProperties(t *testing.T) {
	client := &MockSchemaClient{
		ExistingClass: &models.Class{
			Class: "RAGESGDocuments",
			Properties: []*models.Property{
				{Name: "source_document", DataType: []string{"text"}},
				{Name: "text", DataType: []string{"text"}},
			},
		},
	}

	require.NoError(t, EnsureSchema(context.Background(), client, "RAGESGDocuments"))
	assert.Nil(t, client.CreatedClass, "should not recreate an existing class")

	added := make(map[string]bool)
	for _, p := range client.AddedProperties {
		added[p.Name] = true
	}
	assert.Len(t, added, 10)
	assert.True(t, added["content_type"])
	assert.True(t, added["transcription"])
	assert.False(t, added["text"])
}

func TestEnsureSchema_ExistsError(t *testing.T) {
	client := &MockSchemaClient{ExistsErr: errors.New("unreachable")}
	err := EnsureSchema(context.Background(), client, "RAGESGDocuments")
	assert.ErrorContains(t, err, "unreachable")
}

func TestResetSchema(t *testing.T) {
	client := &MockSchemaClient{ExistingClass: &models.Class{Class: "RAGESGDocuments"}}

	require.NoError(t, ResetSchema(context.Background(), client, "RAGESGDocuments"))
	assert.Equal(t, []string{"RAGESGDocuments"}, client.Deleted)
	require.NotNil(t, client.CreatedClass)
	assert.Len(t, client.CreatedClass.Properties, 12)
}

func TestResetSchema_MissingClass(t *testing.T) {
	client := &MockSchemaClient{}

	require.NoError(t, ResetSchema(context.Background(), client, "RAGESGDocuments"))
	assert.Empty(t, client.Deleted)
	assert.NotNil(t, client.CreatedClass)
}
