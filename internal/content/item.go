package content

import (
	"fmt"
	"strconv"
	"strings"
)

type ContentType string

const (
	TypeAudio ContentType = "audio"
	TypeText  ContentType = "text"
	TypeImage ContentType = "image"
	TypeTable ContentType = "table"
)

// Types lists the supported content types in ingestion order.
var Types = []ContentType{TypeAudio, TypeText, TypeImage, TypeTable}

func (t ContentType) Valid() bool {
	switch t {
	case TypeAudio, TypeText, TypeImage, TypeTable:
		return true
	}
	return false
}

func ParseContentType(s string) (ContentType, error) {
	t := ContentType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownContentType, s)
	}
	return t, nil
}

// Property names shared by the vector collection, snapshots and queue envelopes.
const (
	PropContentType     = "content_type"
	PropURL             = "url"
	PropAudioPath       = "audio_path"
	PropTranscription   = "transcription"
	PropSourceDocument  = "source_document"
	PropPageNumber      = "page_number"
	PropParagraphNumber = "paragraph_number"
	PropText            = "text"
	PropImagePath       = "image_path"
	PropDescription     = "description"
	PropBase64          = "base64_encoding"
	PropTableContent    = "table_content"
)

// Item is one normalized unit of content. The set of variants is closed:
// Audio, Text, Image and Table.
type Item interface {
	Type() ContentType
	// KeyFields returns the identity key fields in canonical order.
	KeyFields() []string
	// EmbeddingText is the text that is embedded for retrieval.
	EmbeddingText() string
	// Properties is the stored payload, content_type included.
	Properties() map[string]any
	isItem()
}

type Audio struct {
	URL           string
	AudioPath     string
	Transcription string
}

func (Audio) isItem()                 {}
func (Audio) Type() ContentType       { return TypeAudio }
func (a Audio) KeyFields() []string   { return []string{a.URL} }
func (a Audio) EmbeddingText() string { return a.Transcription }

func (a Audio) Properties() map[string]any {
	p := map[string]any{
		PropContentType:   string(TypeAudio),
		PropURL:           a.URL,
		PropTranscription: a.Transcription,
	}
	if a.AudioPath != "" {
		p[PropAudioPath] = a.AudioPath
	}
	return p
}

type Text struct {
	SourceDocument  string
	PageNumber      int
	ParagraphNumber int
	Text            string
}

func (Text) isItem()           {}
func (Text) Type() ContentType { return TypeText }

func (t Text) KeyFields() []string {
	return []string{t.SourceDocument, strconv.Itoa(t.PageNumber), strconv.Itoa(t.ParagraphNumber)}
}

func (t Text) EmbeddingText() string { return t.Text }

func (t Text) Properties() map[string]any {
	return map[string]any{
		PropContentType:     string(TypeText),
		PropSourceDocument:  t.SourceDocument,
		PropPageNumber:      t.PageNumber,
		PropParagraphNumber: t.ParagraphNumber,
		PropText:            t.Text,
	}
}

type Image struct {
	SourceDocument string
	PageNumber     int
	ImagePath      string
	Description    string
	Base64Encoding string
}

func (Image) isItem()           {}
func (Image) Type() ContentType { return TypeImage }

func (i Image) KeyFields() []string {
	return []string{i.SourceDocument, strconv.Itoa(i.PageNumber), i.ImagePath}
}

func (i Image) EmbeddingText() string {
	if strings.TrimSpace(i.Description) != "" {
		return i.Description
	}
	return i.ImagePath
}

func (i Image) Properties() map[string]any {
	p := map[string]any{
		PropContentType:    string(TypeImage),
		PropSourceDocument: i.SourceDocument,
		PropPageNumber:     i.PageNumber,
		PropImagePath:      i.ImagePath,
	}
	if i.Description != "" {
		p[PropDescription] = i.Description
	}
	if i.Base64Encoding != "" {
		p[PropBase64] = i.Base64Encoding
	}
	return p
}

type Table struct {
	SourceDocument string
	PageNumber     int
	TableContent   string
	Description    string
}

func (Table) isItem()           {}
func (Table) Type() ContentType { return TypeTable }

func (t Table) KeyFields() []string {
	return []string{t.SourceDocument, strconv.Itoa(t.PageNumber)}
}

func (t Table) EmbeddingText() string {
	if strings.TrimSpace(t.Description) != "" {
		return t.Description
	}
	return t.TableContent
}

func (t Table) Properties() map[string]any {
	p := map[string]any{
		PropContentType:    string(TypeTable),
		PropSourceDocument: t.SourceDocument,
		PropPageNumber:     t.PageNumber,
		PropTableContent:   t.TableContent,
	}
	if t.Description != "" {
		p[PropDescription] = t.Description
	}
	return p
}
