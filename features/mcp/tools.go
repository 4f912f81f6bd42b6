package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"esgrag/internal/answer"
	"esgrag/internal/content"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

type SearchArgs struct {
	Query string `json:"query"`
	Limit *int   `json:"limit,omitempty"`
}

type AskArgs struct {
	Question string `json:"question"`
}

type toolFunc func(h *Handler, ctx context.Context, args json.RawMessage) (ToolResult, *RPCError)

type registeredTool struct {
	Tool
	run toolFunc
}

var registry = []registeredTool{
	{
		Tool: Tool{
			Name: "esg_search",
			Description: `Vector search over the ESG collection: audio transcriptions, report paragraphs, figure descriptions and table summaries. Results are ordered by distance, closest first.

USAGE EXAMPLE:
esg_search(query="European sustainable fund flows Q1 2024", limit=5)`,
			InputSchema: objectSchema([]string{"query"}, map[string]any{
				"query": map[string]any{"type": "string", "description": "The search query"},
				"limit": map[string]any{
					"type":        "integer",
					"description": fmt.Sprintf("Max results to return (default %d).", defaultLimit),
					"minimum":     1,
					"maximum":     maxLimit,
				},
			}),
		},
		run: (*Handler).search,
	},
	{
		Tool: Tool{
			Name: "esg_ask",
			Description: `Answers a question about ESG investing from the indexed sources. The answer states when the sources do not cover the question.

USAGE EXAMPLE:
esg_ask(question="What is the net flows for Parnassus Mid Cap Fund?")`,
			InputSchema: objectSchema([]string{"question"}, map[string]any{
				"question": map[string]any{"type": "string", "description": "The question to answer"},
			}),
		},
		run: (*Handler).ask,
	},
}

func objectSchema(required []string, props map[string]any) map[string]any {
	return map[string]any{"type": "object", "properties": props, "required": required}
}

func toolList() []Tool {
	list := make([]Tool, len(registry))
	for i, t := range registry {
		list[i] = t.Tool
	}
	return list
}

func lookupTool(name string) (registeredTool, bool) {
	for _, t := range registry {
		if t.Name == name {
			return t, true
		}
	}
	return registeredTool{}, false
}

func (h *Handler) search(ctx context.Context, raw json.RawMessage) (ToolResult, *RPCError) {
	var args SearchArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		slog.WarnContext(ctx, "invalid search arguments", "error", err)
		return ToolResult{}, rpcError(ErrInvalidParams, "Invalid search arguments")
	}
	if strings.TrimSpace(args.Query) == "" {
		return ToolResult{}, rpcError(ErrInvalidParams, "Query is required")
	}

	limit := defaultLimit
	if args.Limit != nil {
		if *args.Limit < 1 || *args.Limit > maxLimit {
			return ToolResult{}, rpcError(ErrInvalidParams, fmt.Sprintf("Limit must be between 1 and %d", maxLimit))
		}
		limit = *args.Limit
	}

	results, err := h.retriever.Retrieve(ctx, args.Query, limit)
	if err != nil {
		slog.ErrorContext(ctx, "search failed", "error", err)
		return ToolResult{}, rpcError(ErrInternal, "Search failed: "+err.Error())
	}
	slog.InfoContext(ctx, "tool execution completed", "tool", "esg_search", "result_count", len(results))

	if len(results) == 0 {
		return textResult("No results found.", false), nil
	}
	var sb strings.Builder
	for i, res := range results {
		fmt.Fprintf(&sb, "Result %d (Distance: %.4f, ID: %s):\n", i+1, res.Distance, res.ID)
		sb.WriteString(answer.Assemble([]content.Result{res}))
		sb.WriteString("\n---\n")
	}
	return textResult(sb.String(), false), nil
}

func (h *Handler) ask(ctx context.Context, raw json.RawMessage) (ToolResult, *RPCError) {
	var args AskArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		slog.WarnContext(ctx, "invalid ask arguments", "error", err)
		return ToolResult{}, rpcError(ErrInvalidParams, "Invalid ask arguments")
	}
	if strings.TrimSpace(args.Question) == "" {
		return ToolResult{}, rpcError(ErrInvalidParams, "Question is required")
	}

	a, err := h.asker.Ask(ctx, args.Question)
	if err != nil {
		slog.ErrorContext(ctx, "ask failed", "error", err)
		return textResult("Error: "+err.Error(), true), nil
	}
	slog.InfoContext(ctx, "tool execution completed", "tool", "esg_ask", "source_count", len(a.Sources))

	var sb strings.Builder
	sb.WriteString(a.Answer)
	if len(a.Sources) > 0 {
		sb.WriteString("\n\nSources:")
		for _, s := range a.Sources {
			fmt.Fprintf(&sb, "\n%s (%s, %.4f)", s.ID, s.ContentType, s.Distance)
		}
	}
	return textResult(sb.String(), false), nil
}
