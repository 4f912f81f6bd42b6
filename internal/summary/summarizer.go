// Package summary writes analyst summaries for report tables and figures.
package summary

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"esgrag/internal/content"
)

const tablePrompt = `As an ESG analyst for emerging markets investments, provide a concise summary of the table.
Focus on ESG metrics, trends, comparisons, or outliers relevant to emerging markets.
Ensure it's precise and informative.

Table: %s

Limit your summary to 3-4 sentences.`

const imagePrompt = `As an ESG analyst for emerging markets investments, describe key insights from the image.
Focus on ESG-relevant content and its emerging market context.
Deliver a coherent summary that captures the image's essence.

Image: %s

Limit your description to 3-4 sentences.`

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ImageDescriber is implemented by generators that accept image bytes.
type ImageDescriber interface {
	DescribeImage(ctx context.Context, prompt string, format string, data []byte) (string, error)
}

type Summarizer struct {
	generator Generator
	logger    *slog.Logger
}

func New(g Generator) *Summarizer {
	return &Summarizer{generator: g, logger: slog.Default().With("component", "summarizer")}
}

func (s *Summarizer) SummarizeTable(ctx context.Context, tableContent string) (string, error) {
	if strings.TrimSpace(tableContent) == "" {
		return "", &content.MissingFieldError{ContentType: content.TypeTable, Field: content.PropTableContent}
	}
	out, err := s.generator.Generate(ctx, fmt.Sprintf(tablePrompt, tableContent))
	if err != nil {
		return "", fmt.Errorf("summarize table: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// DescribeImage describes the figure at path. Generators that take image
// bytes see the figure itself; others only get its path.
func (s *Summarizer) DescribeImage(ctx context.Context, path string) (string, error) {
	describer, multimodal := s.generator.(ImageDescriber)
	if !multimodal {
		out, err := s.generator.Generate(ctx, fmt.Sprintf(imagePrompt, path))
		if err != nil {
			return "", fmt.Errorf("describe image %s: %w", path, err)
		}
		return strings.TrimSpace(out), nil
	}

	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path was produced by the extractor
	if err != nil {
		return "", err
	}
	out, err := describer.DescribeImage(ctx, fmt.Sprintf(imagePrompt, filepath.Base(path)), imageFormat(path), data)
	if err != nil {
		return "", fmt.Errorf("describe image %s: %w", path, err)
	}
	return strings.TrimSpace(out), nil
}

// EncodeImage reads the figure at path as standard base64.
func EncodeImage(path string) (string, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path was produced by the extractor
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func imageFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".webp":
		return "webp"
	default:
		return "jpeg"
	}
}
