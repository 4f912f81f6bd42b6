package weaviate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgrag/internal/adapter/weaviate"
	"esgrag/internal/content"
	"esgrag/internal/testutils"
)

func TestWeaviateStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	store := weaviate.NewStore(s.Weaviate, "RAGESGDocumentsIT")
	ctx := context.Background()

	require.NoError(t, store.Reset(ctx))

	text := content.Text{SourceDocument: "report.pdf", PageNumber: 1, ParagraphNumber: 1, Text: "Europe dominates ESG flows"}
	table := content.Table{SourceDocument: "report.pdf", PageNumber: 2, TableContent: "Region | Flows"}

	textRec, err := content.NewRecord(text, []float32{0.1, 0.1, 0.1})
	require.NoError(t, err)
	tableRec, err := content.NewRecord(table, []float32{0.9, 0.1, 0.4})
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, textRec))
	require.NoError(t, store.Put(ctx, tableRec))

	// a second create for the same id is rejected by the store
	err = store.Put(ctx, textRec)
	assert.ErrorIs(t, err, content.ErrAlreadyExists)

	ok, err := store.Exists(ctx, textRec.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	res, err := store.NearVector(ctx, []float32{0.1, 0.1, 0.1}, 10)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, textRec.ID, res[0].ID)
	assert.LessOrEqual(t, res[0].Distance, res[1].Distance)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, store.Reset(ctx))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
