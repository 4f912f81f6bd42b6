package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgrag/internal/content"
)

func TestSplit(t *testing.T) {
	elements := []Element{
		{Kind: KindNarrativeText, PageNumber: 1, Text: "Global sustainable fund flows"},
		{Kind: KindNarrativeText, PageNumber: 1, Text: "  "},
		{Kind: KindNarrativeText, PageNumber: 1, Text: "Europe remained the largest market"},
		{Kind: KindImage, PageNumber: 1, ImagePath: "data/images/figure-1-1.jpg"},
		{Kind: KindNarrativeText, PageNumber: 2, Text: "US outflows continued"},
		{Kind: KindTable, PageNumber: 2, Text: "Region Flows\nEurope 10"},
		{Kind: KindImage, PageNumber: 3},
		{Kind: Kind("title"), PageNumber: 3, Text: "ignored"},
	}

	recs := Split("Global_ESG_Flows_Q1_2024_Report.pdf", elements)

	require.Len(t, recs.Text, 3)
	assert.Equal(t, 1, recs.Text[0][content.PropParagraphNumber])
	assert.Equal(t, 2, recs.Text[1][content.PropParagraphNumber])
	assert.Equal(t, "Europe remained the largest market", recs.Text[1][content.PropText])
	assert.Equal(t, 2, recs.Text[2][content.PropPageNumber])
	assert.Equal(t, 1, recs.Text[2][content.PropParagraphNumber], "numbering restarts per page")

	require.Len(t, recs.Images, 1)
	assert.Equal(t, "data/images/figure-1-1.jpg", recs.Images[0][content.PropImagePath])

	require.Len(t, recs.Tables, 1)
	assert.Equal(t, "Region Flows\nEurope 10", recs.Tables[0][content.PropTableContent])
	assert.Equal(t, 5, recs.Len())

	for _, r := range recs.Text {
		item, err := content.Normalize(content.TypeText, r)
		require.NoError(t, err)
		assert.Equal(t, "Global_ESG_Flows_Q1_2024_Report.pdf", item.(content.Text).SourceDocument)
	}
}

func TestSplit_Empty(t *testing.T) {
	recs := Split("r.pdf", nil)
	assert.Equal(t, 0, recs.Len())
}
