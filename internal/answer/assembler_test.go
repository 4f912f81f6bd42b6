package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"esgrag/internal/content"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func TestAssembler_Answer(t *testing.T) {
	results := []content.Result{
		{ID: "1", ContentType: content.TypeText, Distance: 0.1, Metadata: map[string]any{
			"source_document": "r.pdf", "page_number": 1, "paragraph_number": 1, "text": "Flows rose.",
		}},
	}

	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Text from r.pdf (Page 1, Paragraph 1): Flows rose.") &&
			strings.Contains(p, "Question: What happened to flows?")
	})).Return(" They rose. ", nil)

	a := NewAssembler(gen)
	ans, err := a.Answer(context.Background(), "What happened to flows?", results)
	require.NoError(t, err)

	assert.Equal(t, "What happened to flows?", ans.Query)
	assert.Equal(t, "They rose.", ans.Answer)
	assert.Equal(t, results, ans.Sources)
	assert.False(t, ans.ContextTruncated)
	gen.AssertExpectations(t)
}

func TestAssembler_Answer_NoResults(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, NoResultsContext)
	})).Return("No data.", nil)

	ans, err := NewAssembler(gen).Answer(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.NotNil(t, ans.Sources)
	assert.Empty(t, ans.Sources)
}

func TestAssembler_Answer_Truncates(t *testing.T) {
	var results []content.Result
	for i := 0; i < 200; i++ {
		results = append(results, content.Result{ContentType: content.TypeAudio, Metadata: map[string]any{
			"url": "https://x", "transcription": strings.Repeat("word ", 40),
		}})
	}

	gen := new(MockGenerator)
	var prompt string
	gen.On("Generate", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		prompt = args.String(1)
	}).Return("ok", nil)

	a := NewAssembler(gen, WithMaxContextChars(1000))
	ans, err := a.Answer(context.Background(), "q", results)
	require.NoError(t, err)

	assert.True(t, ans.ContextTruncated)
	assert.Less(t, len(prompt), 1000+len(promptTemplate)+10)
	assert.Len(t, ans.Sources, 200)
}

func TestAssembler_Answer_GeneratorError(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("503"))

	_, err := NewAssembler(gen).Answer(context.Background(), "q", nil)
	assert.ErrorContains(t, err, "503")
}
