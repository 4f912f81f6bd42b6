package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

const DefaultGenerationModel = "gemini-2.0-flash"

var ErrEmptyResponse = errors.New("model returned no text")

type Generator struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGenerator(client *genai.Client, model string) *Generator {
	if model == "" {
		model = DefaultGenerationModel
	}
	return &Generator{client: client, model: model, temperature: 0.2}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, genai.Text(prompt))
}

// DescribeImage sends the image bytes next to the prompt. format is the image
// subtype, e.g. "jpeg" or "png".
func (g *Generator) DescribeImage(ctx context.Context, prompt string, format string, data []byte) (string, error) {
	return g.generate(ctx, genai.Text(prompt), genai.ImageData(format, data))
}

func (g *Generator) generate(ctx context.Context, parts ...genai.Part) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(g.temperature)

	slog.DebugContext(ctx, "generating content", "model", g.model, "parts", len(parts))
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		slog.ErrorContext(ctx, "generation failed", "model", g.model, "error", err)
		return "", fmt.Errorf("generate with %s: %w", g.model, err)
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		// first candidate with content wins
		if b.Len() > 0 {
			break
		}
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
