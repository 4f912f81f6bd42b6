package openai

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"esgrag/internal/content"
)

const DefaultEmbeddingModel = openai.SmallEmbedding3

type Embedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewEmbedder(client *openai.Client, model string) *Embedder {
	m := openai.EmbeddingModel(model)
	if m == "" {
		m = DefaultEmbeddingModel
	}
	return &Embedder{client: client, model: m}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &content.EmbeddingError{Reason: "empty input"}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, &content.EmbeddingError{Reason: string(e.model), Err: err}
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, &content.EmbeddingError{Reason: "no embedding data returned"}
	}

	return resp.Data[0].Embedding, nil
}
