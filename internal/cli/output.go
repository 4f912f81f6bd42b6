package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"esgrag/features/failure"
	"esgrag/internal/answer"
	"esgrag/internal/content"
	"esgrag/internal/ingest"
)

const answerWidth = 120

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	answerStyle  = lipgloss.NewStyle().Width(answerWidth)
	rule         = strings.Repeat("-", 40)
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReport(w io.Writer, r ingest.Report, asJSON bool) error {
	if asJSON {
		return writeJSON(w, r)
	}
	fmt.Fprintf(w, "%s written=%d skipped=%d near_duplicates=%d failed=%d\n",
		headingStyle.Render("Ingestion:"), r.Written, r.Skipped, r.NearDuplicates, len(r.Failed))
	printFailedItems(w, r.Failed)
	return nil
}

func printQueued(w io.Writer, queued int, failed []ingest.Failure, asJSON bool) error {
	if asJSON {
		if failed == nil {
			failed = []ingest.Failure{}
		}
		return writeJSON(w, map[string]any{"queued": queued, "failed": failed})
	}
	fmt.Fprintf(w, "%s queued=%d failed=%d\n", headingStyle.Render("Enqueued:"), queued, len(failed))
	printFailedItems(w, failed)
	return nil
}

func printFailedItems(w io.Writer, failed []ingest.Failure) {
	for _, f := range failed {
		fmt.Fprintf(w, "  [%s] %s %s: %s\n", f.Kind, f.ContentType, strings.Join(f.Key, "/"), f.Error)
	}
}

func printAnswers(w io.Writer, answers []*answer.Answer, asJSON bool) error {
	if asJSON {
		return writeJSON(w, answers)
	}
	for i, a := range answers {
		if i > 0 {
			fmt.Fprintln(w, rule)
		}
		fmt.Fprintf(w, "%s %s\n\n", headingStyle.Render("Q:"), a.Query)
		fmt.Fprintln(w, answerStyle.Render(a.Answer))
		if len(a.Sources) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, headingStyle.Render("Sources:"))
			for _, r := range a.Sources {
				fmt.Fprintf(w, "  %s %s\n", sourceLabel(r), mutedStyle.Render(fmt.Sprintf("(%.4f)", r.Distance)))
			}
		}
		if a.ContextTruncated {
			fmt.Fprintln(w, mutedStyle.Render("context was truncated to fit the prompt"))
		}
	}
	return nil
}

func printResults(w io.Writer, results []content.Result, asJSON bool) error {
	if asJSON {
		if results == nil {
			results = []content.Result{}
		}
		return writeJSON(w, results)
	}
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}
	fmt.Fprintf(w, "Found %d results:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(w, "%d. %s (%.4f)\n", i+1, sourceLabel(r), r.Distance)
		fmt.Fprintf(w, "   ID: %s\n", r.ID)
		if i < len(results)-1 {
			fmt.Fprintln(w, rule)
		}
	}
	return nil
}

func printFailures(w io.Writer, entries []failure.Failure, asJSON bool) error {
	if asJSON {
		if entries == nil {
			entries = []failure.Failure{}
		}
		return writeJSON(w, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No failed items.")
		return nil
	}
	for _, f := range entries {
		fmt.Fprintf(w, "%s  %s %s  [%s] retries=%d\n", f.ID, f.ContentType, strings.Join(f.Key, "/"), f.Kind, f.Retries)
		fmt.Fprintf(w, "   %s\n", f.Error)
	}
	return nil
}

// sourceLabel names a result by where it came from.
func sourceLabel(r content.Result) string {
	meta := content.RawRecord(r.Metadata)
	str := func(k string) string { v, _ := meta.Str(k); return v }
	num := func(k string) int { v, _ := meta.Int(k); return v }
	switch r.ContentType {
	case content.TypeAudio:
		return fmt.Sprintf("audio %s", str(content.PropURL))
	case content.TypeText:
		return fmt.Sprintf("text %s p.%d", str(content.PropSourceDocument), num(content.PropPageNumber))
	case content.TypeImage:
		return fmt.Sprintf("image %s", str(content.PropImagePath))
	case content.TypeTable:
		return fmt.Sprintf("table %s p.%d", str(content.PropSourceDocument), num(content.PropPageNumber))
	default:
		return string(r.ContentType)
	}
}
