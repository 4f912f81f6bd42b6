package summary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
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

type MockMultimodal struct {
	MockGenerator
}

func (m *MockMultimodal) DescribeImage(ctx context.Context, prompt, format string, data []byte) (string, error) {
	args := m.Called(ctx, prompt, format, data)
	return args.String(0), args.Error(1)
}

func writeFigure(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))
	return path
}

func TestSummarizeTable(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Table: Region | Flows") && strings.Contains(p, "3-4 sentences")
	})).Return(" Europe leads. ", nil)

	out, err := New(gen).SummarizeTable(context.Background(), "Region | Flows")
	require.NoError(t, err)
	assert.Equal(t, "Europe leads.", out)
}

func TestSummarizeTable_Errors(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("quota"))
	s := New(gen)

	_, err := s.SummarizeTable(context.Background(), " ")
	assert.ErrorIs(t, err, content.ErrMissingField)

	_, err = s.SummarizeTable(context.Background(), "x")
	assert.ErrorContains(t, err, "quota")
}

func TestDescribeImage_TextOnly(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Image: data/images/figure-1-1.jpg")
	})).Return("A chart.", nil)

	out, err := New(gen).DescribeImage(context.Background(), "data/images/figure-1-1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "A chart.", out)
}

func TestDescribeImage_Multimodal(t *testing.T) {
	path := writeFigure(t, "figure-2-1.png")
	gen := new(MockMultimodal)
	gen.On("DescribeImage", mock.Anything, mock.Anything, "png", []byte{1, 2, 3}).Return("Flows by region.", nil)

	out, err := New(gen).DescribeImage(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Flows by region.", out)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestDescribeImage_MissingFile(t *testing.T) {
	_, err := New(new(MockMultimodal)).DescribeImage(context.Background(), "/nope.jpg")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEncodeImage(t *testing.T) {
	out, err := EncodeImage(writeFigure(t, "f.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "AQID", out)
}
