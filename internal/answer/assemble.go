package answer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"esgrag/internal/content"
)

// NoResultsContext replaces the context when no result could be rendered.
const NoResultsContext = "No relevant ESG documents found for this query."

// Assemble renders results, in order, into the context handed to the generator.
// Results of unrecognized types are skipped.
func Assemble(results []content.Result) string {
	var b strings.Builder
	for _, r := range results {
		b.WriteString(renderBlock(r))
	}
	if b.Len() == 0 {
		return NoResultsContext
	}
	return b.String()
}

func renderBlock(r content.Result) string {
	meta := content.RawRecord(r.Metadata)
	ct := r.ContentType
	if ct == "" {
		if s, ok := meta.Str(content.PropContentType); ok {
			ct = content.ContentType(s)
		}
	}

	switch ct {
	case content.TypeAudio:
		return fmt.Sprintf("Audio Transcription from %s: %s\n\n",
			field(meta, content.PropURL), field(meta, content.PropTranscription))
	case content.TypeText:
		return fmt.Sprintf("Text from %s (Page %s, Paragraph %s): %s\n\n",
			field(meta, content.PropSourceDocument), field(meta, content.PropPageNumber),
			field(meta, content.PropParagraphNumber), field(meta, content.PropText))
	case content.TypeImage:
		return fmt.Sprintf("Image from %s (Page %s, Path: %s)\n\n",
			field(meta, content.PropSourceDocument), field(meta, content.PropPageNumber),
			field(meta, content.PropImagePath))
	case content.TypeTable:
		return fmt.Sprintf("Table from %s (Page %s): %s\n\n",
			field(meta, content.PropSourceDocument), field(meta, content.PropPageNumber),
			field(meta, content.PropTableContent))
	}
	return ""
}

func field(meta content.RawRecord, key string) string {
	if n, ok := meta.Int(key); ok {
		if _, isStr := meta[key].(string); !isStr {
			return strconv.Itoa(n)
		}
	}
	s, _ := meta.Str(key)
	return s
}

// TruncateContext limits text to maxChars runes. When possible the cut falls on
// a block boundary so no block is emitted half-rendered.
func TruncateContext(text string, maxChars int) (string, bool) {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text, false
	}

	n, end := 0, len(text)
	for i := range text {
		if n == maxChars {
			end = i
			break
		}
		n++
	}
	head := text[:end]

	if idx := strings.LastIndex(head, "\n\n"); idx >= len(head)/2 {
		return head[:idx+2], true
	}
	return head, true
}
