package content

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidKey         = errors.New("invalid identity key")
	ErrMissingField       = errors.New("missing required field")
	ErrUnknownContentType = errors.New("unknown content type")
	ErrEmbedding          = errors.New("embedding failed")
	ErrStore              = errors.New("vector store failure")
	ErrTranscription      = errors.New("transcription failed")
	ErrNotFound           = errors.New("media not found")
	ErrAlreadyExists      = errors.New("item already exists")
)

// InvalidKeyError reports a key field that cannot take part in an identity.
type InvalidKeyError struct {
	ContentType ContentType
	Field       string
	Reason      string
}

func (e *InvalidKeyError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid identity key for %q: %s", e.ContentType, e.Reason)
	}
	return fmt.Sprintf("invalid identity key for %q: field %s %s", e.ContentType, e.Field, e.Reason)
}

func (e *InvalidKeyError) Is(target error) bool { return target == ErrInvalidKey }

type MissingFieldError struct {
	ContentType ContentType
	Field       string
}

func (e *MissingFieldError) Error() string {
	if e.ContentType == "" {
		return fmt.Sprintf("record missing required field %q", e.Field)
	}
	return fmt.Sprintf("%s record missing required field %q", e.ContentType, e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

type EmbeddingError struct {
	Reason string
	Err    error
}

func (e *EmbeddingError) Error() string {
	switch {
	case e.Err != nil && e.Reason != "":
		return fmt.Sprintf("embedding failed: %s: %v", e.Reason, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("embedding failed: %v", e.Err)
	default:
		return "embedding failed: " + e.Reason
	}
}

func (e *EmbeddingError) Is(target error) bool { return target == ErrEmbedding }
func (e *EmbeddingError) Unwrap() error        { return e.Err }

type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("vector store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Is(target error) bool { return target == ErrStore }
func (e *StoreError) Unwrap() error        { return e.Err }

type TranscriptionError struct {
	Media string
	Err   error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription of %s failed: %v", e.Media, e.Err)
}

func (e *TranscriptionError) Is(target error) bool { return target == ErrTranscription }
func (e *TranscriptionError) Unwrap() error        { return e.Err }

type NotFoundError struct {
	URL string
	Err error
}

func (e *NotFoundError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("media %s not found", e.URL)
	}
	return fmt.Sprintf("media %s not found: %v", e.URL, e.Err)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
func (e *NotFoundError) Unwrap() error        { return e.Err }

// ErrorKind is the stable label recorded for a failed item.
type ErrorKind string

const (
	KindInvalidKey         ErrorKind = "invalid_key"
	KindMissingField       ErrorKind = "missing_field"
	KindUnknownContentType ErrorKind = "unknown_content_type"
	KindEmbedding          ErrorKind = "embedding"
	KindStore              ErrorKind = "store"
	KindTranscription      ErrorKind = "transcription"
	KindNotFound           ErrorKind = "not_found"
	KindCanceled           ErrorKind = "canceled"
	KindUnknown            ErrorKind = "unknown"
)

func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidKey):
		return KindInvalidKey
	case errors.Is(err, ErrMissingField):
		return KindMissingField
	case errors.Is(err, ErrUnknownContentType):
		return KindUnknownContentType
	case errors.Is(err, ErrEmbedding):
		return KindEmbedding
	case errors.Is(err, ErrStore):
		return KindStore
	case errors.Is(err, ErrTranscription):
		return KindTranscription
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindUnknown
	}
}

// Retryable reports whether a failure of this kind may succeed on a later attempt.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindEmbedding, KindStore, KindCanceled:
		return true
	default:
		return false
	}
}
