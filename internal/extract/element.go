// Package extract turns tagged document elements into raw content records.
package extract

import (
	"context"
	"strings"

	"esgrag/internal/content"
)

// Kind is the element tag assigned by the extractor. Only these three kinds
// reach the pipeline; everything else is dropped at extraction time.
type Kind string

const (
	KindNarrativeText Kind = "narrative_text"
	KindImage         Kind = "image"
	KindTable         Kind = "table"
)

type Element struct {
	Kind       Kind
	PageNumber int
	Text       string
	// ImagePath is set for image elements once the figure is written to disk.
	ImagePath string
}

type DocumentExtractor interface {
	Extract(ctx context.Context, documentPath string) ([]Element, error)
}

// Records groups the raw records of one document by content type.
type Records struct {
	Text   []content.RawRecord
	Images []content.RawRecord
	Tables []content.RawRecord
}

func (r Records) Len() int { return len(r.Text) + len(r.Images) + len(r.Tables) }

// Split converts the elements of document into raw records. Narrative text is
// numbered per page starting at 1 in document order; blank text is dropped.
func Split(document string, elements []Element) Records {
	var out Records
	paragraphs := make(map[int]int)

	for _, el := range elements {
		switch el.Kind {
		case KindNarrativeText:
			text := strings.TrimSpace(el.Text)
			if text == "" {
				continue
			}
			paragraphs[el.PageNumber]++
			out.Text = append(out.Text, content.RawRecord{
				content.PropSourceDocument:  document,
				content.PropPageNumber:      el.PageNumber,
				content.PropParagraphNumber: paragraphs[el.PageNumber],
				content.PropText:            text,
			})
		case KindImage:
			if el.ImagePath == "" {
				continue
			}
			out.Images = append(out.Images, content.RawRecord{
				content.PropSourceDocument: document,
				content.PropPageNumber:     el.PageNumber,
				content.PropImagePath:      el.ImagePath,
			})
		case KindTable:
			out.Tables = append(out.Tables, content.RawRecord{
				content.PropSourceDocument: document,
				content.PropPageNumber:     el.PageNumber,
				content.PropTableContent:   strings.TrimSpace(el.Text),
			})
		}
	}
	return out
}
