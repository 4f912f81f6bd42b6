package openai

import (
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

var ErrNoAPIKey = errors.New("openai api key not configured")

// NewClient builds a go-openai client. baseURL overrides the API root when
// non-empty, e.g. for a local gateway or tests.
func NewClient(apiKey, baseURL string) (*openai.Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg), nil
}
