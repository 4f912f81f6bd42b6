package content

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RawRecord is an untyped record as produced by extraction, transcription,
// snapshots or queue envelopes.
type RawRecord map[string]any

// Str returns the trimmed string under key. Null, missing and blank values report false.
func (r RawRecord) Str(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		s = string(x)
	case fmt.Stringer:
		s = x.String()
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Int returns an integer under key. JSON numbers and digit strings are accepted;
// fractional values are rejected.
func (r RawRecord) Int(key string) (int, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch x := v.(type) {
	case int:
		return x, true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			f, ferr := x.Float64()
			if ferr != nil {
				return 0, false
			}
			return floatToInt(f)
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	}
	return 0, false
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func (r RawRecord) requireStr(t ContentType, key string) (string, error) {
	s, ok := r.Str(key)
	if !ok {
		return "", &MissingFieldError{ContentType: t, Field: key}
	}
	return s, nil
}

func (r RawRecord) requireInt(t ContentType, key string) (int, error) {
	n, ok := r.Int(key)
	if !ok {
		return 0, &MissingFieldError{ContentType: t, Field: key}
	}
	return n, nil
}

// optional keeps the raw text of an optional field, empty when absent.
func (r RawRecord) optional(key string) string {
	s, _ := r.Str(key)
	return s
}

// Normalize validates raw against the field set of t and returns the typed item.
// The returned item always has a non-empty embedding text.
func Normalize(t ContentType, raw RawRecord) (Item, error) {
	switch t {
	case TypeAudio:
		url, err := raw.requireStr(t, PropURL)
		if err != nil {
			return nil, err
		}
		tr, err := raw.requireStr(t, PropTranscription)
		if err != nil {
			return nil, err
		}
		return Audio{URL: url, AudioPath: raw.optional(PropAudioPath), Transcription: tr}, nil

	case TypeText:
		src, page, err := raw.location(t)
		if err != nil {
			return nil, err
		}
		para, err := raw.requireInt(t, PropParagraphNumber)
		if err != nil {
			return nil, err
		}
		text, err := raw.requireStr(t, PropText)
		if err != nil {
			return nil, err
		}
		return Text{SourceDocument: src, PageNumber: page, ParagraphNumber: para, Text: text}, nil

	case TypeImage:
		src, page, err := raw.location(t)
		if err != nil {
			return nil, err
		}
		path, err := raw.requireStr(t, PropImagePath)
		if err != nil {
			return nil, err
		}
		return Image{
			SourceDocument: src,
			PageNumber:     page,
			ImagePath:      path,
			Description:    raw.optional(PropDescription),
			Base64Encoding: raw.optional(PropBase64),
		}, nil

	case TypeTable:
		src, page, err := raw.location(t)
		if err != nil {
			return nil, err
		}
		tbl := Table{
			SourceDocument: src,
			PageNumber:     page,
			TableContent:   raw.optional(PropTableContent),
			Description:    raw.optional(PropDescription),
		}
		if tbl.TableContent == "" && tbl.Description == "" {
			return nil, &MissingFieldError{ContentType: t, Field: PropTableContent}
		}
		return tbl, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, t)
}

func (r RawRecord) location(t ContentType) (string, int, error) {
	src, err := r.requireStr(t, PropSourceDocument)
	if err != nil {
		return "", 0, err
	}
	page, err := r.requireInt(t, PropPageNumber)
	if err != nil {
		return "", 0, err
	}
	return src, page, nil
}

// FromProperties rebuilds an item from stored properties, content_type included.
func FromProperties(props map[string]any) (Item, error) {
	raw := RawRecord(props)
	ts, ok := raw.Str(PropContentType)
	if !ok {
		return nil, &MissingFieldError{Field: PropContentType}
	}
	t, err := ParseContentType(ts)
	if err != nil {
		return nil, err
	}
	return Normalize(t, raw)
}
