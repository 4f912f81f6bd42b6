package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"esgrag/internal/content"
)

var (
	ErrUnsupportedMedia = errors.New("only .mp3 media can be transcribed")
	ErrEmptyMedia       = errors.New("media file is empty")
)

// AudioAPI is the slice of the OpenAI client used for speech to text.
type AudioAPI interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// Transcriber turns downloaded mp3 talks into text with Whisper.
type Transcriber struct {
	api   AudioAPI
	model string
}

func NewTranscriber(api AudioAPI, model string) *Transcriber {
	if model == "" {
		model = openai.Whisper1
	}
	return &Transcriber{api: api, model: model}
}

func (t *Transcriber) Transcribe(ctx context.Context, mediaPath string) (string, error) {
	if !strings.EqualFold(filepath.Ext(mediaPath), ".mp3") {
		return "", &content.TranscriptionError{Media: mediaPath, Err: ErrUnsupportedMedia}
	}

	info, err := os.Stat(mediaPath)
	if err != nil {
		return "", &content.TranscriptionError{Media: mediaPath, Err: err}
	}
	if info.Size() == 0 {
		return "", &content.TranscriptionError{Media: mediaPath, Err: ErrEmptyMedia}
	}

	slog.InfoContext(ctx, "transcribing media", "path", mediaPath, "bytes", info.Size(), "model", t.model)
	resp, err := t.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: mediaPath,
	})
	if err != nil {
		return "", &content.TranscriptionError{Media: mediaPath, Err: err}
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", &content.TranscriptionError{Media: mediaPath, Err: fmt.Errorf("no speech recognized")}
	}
	return text, nil
}
