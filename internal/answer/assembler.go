package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"esgrag/internal/content"
)

const DefaultMaxContextChars = 8000

const promptTemplate = `You are an ESG analyst for emerging markets investments. Answer the question using the context below. If the context does not contain the answer, say that the available ESG documents do not cover it.

Context:
%s

Question: %s

Answer:`

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Answer struct {
	Query   string           `json:"query"`
	Answer  string           `json:"answer"`
	Sources []content.Result `json:"sources"`
	// ContextTruncated reports that retrieved context was cut to fit the prompt.
	ContextTruncated bool `json:"context_truncated"`
}

type Assembler struct {
	generator Generator
	maxChars  int
	logger    *slog.Logger
}

type Option func(*Assembler)

func WithMaxContextChars(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.maxChars = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}

func NewAssembler(g Generator, opts ...Option) *Assembler {
	a := &Assembler{generator: g, maxChars: DefaultMaxContextChars, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "assembler")
	return a
}

// BuildPrompt renders results into a bounded context and combines it with query.
func (a *Assembler) BuildPrompt(query string, results []content.Result) (string, bool) {
	ctxText, truncated := TruncateContext(Assemble(results), a.maxChars)
	return fmt.Sprintf(promptTemplate, ctxText, strings.TrimSpace(query)), truncated
}

// Answer asks the generator to answer query from results.
func (a *Assembler) Answer(ctx context.Context, query string, results []content.Result) (*Answer, error) {
	if results == nil {
		results = []content.Result{}
	}

	prompt, truncated := a.BuildPrompt(query, results)
	if truncated {
		a.logger.WarnContext(ctx, "context truncated", "max_chars", a.maxChars, "results", len(results))
	}

	text, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &Answer{
		Query:            query,
		Answer:           strings.TrimSpace(text),
		Sources:          results,
		ContextTruncated: truncated,
	}, nil
}
