package vector

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"

	"esgrag/internal/content"
)

// SchemaClient defines the Weaviate schema operations the collection needs
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
	DeleteClass(ctx context.Context, className string) error
}

// Properties is the heterogeneous item schema: every content type shares the
// collection and fills only its own fields.
func Properties() []*models.Property {
	text := []string{"text"}
	return []*models.Property{
		{Name: content.PropSourceDocument, DataType: text},
		{Name: content.PropPageNumber, DataType: []string{"int"}},
		{Name: content.PropParagraphNumber, DataType: []string{"int"}},
		{Name: content.PropText, DataType: text},
		{Name: content.PropImagePath, DataType: text},
		{Name: content.PropDescription, DataType: text},
		{Name: content.PropBase64, DataType: []string{"blob"}},
		{Name: content.PropTableContent, DataType: text},
		{Name: content.PropURL, DataType: text},
		{Name: content.PropAudioPath, DataType: text},
		{Name: content.PropTranscription, DataType: text},
		{Name: content.PropContentType, DataType: text},
	}
}

// EnsureSchema creates the collection when absent and adds any missing properties otherwise
func EnsureSchema(ctx context.Context, client SchemaClient, className string) error {
	exists, err := client.ClassExists(ctx, className)
	if err != nil {
		return fmt.Errorf("check class %s: %w", className, err)
	}

	properties := Properties()

	if !exists {
		class := &models.Class{
			Class:       className,
			Description: "Multimodal ESG content: transcripts, report paragraphs, images and tables",
			Vectorizer:  "none",
			Properties:  properties,
		}
		return client.CreateClass(ctx, class)
	}

	class, err := client.GetClass(ctx, className)
	if err != nil {
		return fmt.Errorf("get class %s: %w", className, err)
	}

	existingProps := make(map[string]bool)
	for _, p := range class.Properties {
		existingProps[p.Name] = true
	}

	for _, p := range properties {
		if !existingProps[p.Name] {
			if err := client.AddProperty(ctx, className, p); err != nil {
				return fmt.Errorf("add property %s: %w", p.Name, err)
			}
		}
	}

	return nil
}

// ResetSchema drops the collection with all its objects and recreates it empty.
func ResetSchema(ctx context.Context, client SchemaClient, className string) error {
	exists, err := client.ClassExists(ctx, className)
	if err != nil {
		return fmt.Errorf("check class %s: %w", className, err)
	}
	if exists {
		if err := client.DeleteClass(ctx, className); err != nil {
			return fmt.Errorf("delete class %s: %w", className, err)
		}
	}
	return EnsureSchema(ctx, client, className)
}
