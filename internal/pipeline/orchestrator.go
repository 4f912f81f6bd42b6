// Package pipeline sequences acquisition, extraction, normalization and
// ingestion, and answers questions over the stored collection.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"esgrag/internal/answer"
	"esgrag/internal/content"
	"esgrag/internal/extract"
	"esgrag/internal/ingest"
	"esgrag/internal/summary"
)

type Acquirer interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) (string, error)
}

type Summarizer interface {
	SummarizeTable(ctx context.Context, tableContent string) (string, error)
	DescribeImage(ctx context.Context, path string) (string, error)
}

type Ingester interface {
	Ingest(ctx context.Context, items []content.Item) (ingest.Report, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]content.Result, error)
}

type Answerer interface {
	Answer(ctx context.Context, query string, results []content.Result) (*answer.Answer, error)
}

// ItemPublisher hands items to queue consumers instead of ingesting in-process.
type ItemPublisher interface {
	PublishItems(ctx context.Context, items []content.Item) (int, error)
}

// FailureRecorder persists failed items for later retry.
type FailureRecorder interface {
	Record(ctx context.Context, failures []ingest.Failure) error
}

// Deps are the collaborators of an Orchestrator. Nil members disable the
// stages that need them.
type Deps struct {
	Acquirer    Acquirer
	Transcriber Transcriber
	Extractor   extract.DocumentExtractor
	Summarizer  Summarizer
	Ingester    Ingester
	Retriever   Retriever
	Answerer    Answerer
	Recorder    FailureRecorder
}

type Sources struct {
	AudioURLs []string `json:"audio_urls"`
	Documents []string `json:"documents"`
}

// Batch is the outcome of collection: normalized items ready for ingestion and
// the sources or records that never became items.
type Batch struct {
	Items  []content.Item
	Failed []ingest.Failure
}

const DefaultSearchLimit = 10

var ErrNotConfigured = errors.New("pipeline stage not configured")

type Orchestrator struct {
	deps        Deps
	snapshotDir string
	searchLimit int
	logger      *slog.Logger
}

type Option func(*Orchestrator)

// WithSnapshotDir writes every collected batch to dir as JSON.
func WithSnapshotDir(dir string) Option {
	return func(o *Orchestrator) { o.snapshotDir = dir }
}

func WithSearchLimit(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.searchLimit = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

func New(deps Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{deps: deps, searchLimit: DefaultSearchLimit, logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "pipeline")
	return o
}

// Collect acquires and transcribes every audio source, then extracts every
// document, and normalizes the results. Items come out in the order audio,
// text, images, tables.
func (o *Orchestrator) Collect(ctx context.Context, src Sources) (Batch, error) {
	var batch Batch

	audio, err := o.collectAudio(ctx, src.AudioURLs, &batch)
	if err != nil {
		return batch, err
	}

	var recs extract.Records
	for _, doc := range src.Documents {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		r, err := o.extractDocument(ctx, doc)
		if err != nil {
			o.logger.ErrorContext(ctx, "document extraction failed", "document", doc, "error", err)
			batch.Failed = append(batch.Failed, sourceFailure(doc, err))
			continue
		}
		recs.Text = append(recs.Text, r.Text...)
		recs.Images = append(recs.Images, r.Images...)
		recs.Tables = append(recs.Tables, r.Tables...)
	}

	batch.Items = append(batch.Items, audio...)
	o.normalizeAll(content.TypeText, recs.Text, &batch)
	o.normalizeAll(content.TypeImage, o.enrichImages(ctx, recs.Images), &batch)
	o.normalizeAll(content.TypeTable, o.enrichTables(ctx, recs.Tables), &batch)

	o.logger.InfoContext(ctx, "collection finished", "items", len(batch.Items), "failed", len(batch.Failed))

	if o.snapshotDir != "" {
		if err := WriteSnapshot(o.snapshotDir, batch.Items); err != nil {
			o.logger.ErrorContext(ctx, "snapshot write failed", "dir", o.snapshotDir, "error", err)
		}
	}
	return batch, nil
}

func (o *Orchestrator) collectAudio(ctx context.Context, urls []string, batch *Batch) ([]content.Item, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	var items []content.Item
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if o.deps.Acquirer == nil || o.deps.Transcriber == nil {
			o.logger.WarnContext(ctx, "audio acquisition not configured, skipping", "url", url)
			batch.Failed = append(batch.Failed, audioFailure(url, fmt.Errorf("%w: audio acquisition", ErrNotConfigured)))
			continue
		}

		path, err := o.deps.Acquirer.Fetch(ctx, url)
		if err != nil {
			o.logger.ErrorContext(ctx, "acquisition failed", "url", url, "error", err)
			batch.Failed = append(batch.Failed, audioFailure(url, err))
			continue
		}

		transcript, err := o.deps.Transcriber.Transcribe(ctx, path)
		if err != nil {
			o.logger.ErrorContext(ctx, "transcription failed", "url", url, "path", path, "error", err)
			batch.Failed = append(batch.Failed, audioFailure(url, err))
			continue
		}

		rec := content.RawRecord{
			content.PropURL:           url,
			content.PropAudioPath:     path,
			content.PropTranscription: transcript,
		}
		item, err := content.Normalize(content.TypeAudio, rec)
		if err != nil {
			batch.Failed = append(batch.Failed, recordFailure(content.TypeAudio, rec, err))
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (o *Orchestrator) extractDocument(ctx context.Context, doc string) (extract.Records, error) {
	if o.deps.Extractor == nil {
		return extract.Records{}, fmt.Errorf("%w: document extraction", ErrNotConfigured)
	}
	elements, err := o.deps.Extractor.Extract(ctx, doc)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = &content.NotFoundError{URL: doc, Err: err}
		}
		return extract.Records{}, err
	}
	recs := extract.Split(doc, elements)
	if recs.Len() == 0 {
		o.logger.WarnContext(ctx, "document yielded no records", "document", doc, "elements", len(elements))
		return recs, nil
	}
	o.logger.InfoContext(ctx, "document extracted", "document", doc, "records", recs.Len(),
		"text", len(recs.Text), "images", len(recs.Images), "tables", len(recs.Tables))
	return recs, nil
}

// enrichImages attaches a description and the base64 bytes to each figure.
// Figures whose file is gone are dropped.
func (o *Orchestrator) enrichImages(ctx context.Context, recs []content.RawRecord) []content.RawRecord {
	out := make([]content.RawRecord, 0, len(recs))
	for _, rec := range recs {
		path, _ := rec.Str(content.PropImagePath)

		encoded, err := summary.EncodeImage(path)
		if err != nil {
			o.logger.WarnContext(ctx, "skipping unreadable image", "path", path, "error", err)
			continue
		}
		rec[content.PropBase64] = encoded

		if o.deps.Summarizer != nil {
			desc, err := o.deps.Summarizer.DescribeImage(ctx, path)
			if err != nil {
				// the image path still embeds
				o.logger.WarnContext(ctx, "image description failed", "path", path, "error", err)
			} else {
				rec[content.PropDescription] = desc
			}
		}
		out = append(out, rec)
	}
	return out
}

func (o *Orchestrator) enrichTables(ctx context.Context, recs []content.RawRecord) []content.RawRecord {
	if o.deps.Summarizer == nil {
		return recs
	}
	for _, rec := range recs {
		table, ok := rec.Str(content.PropTableContent)
		if !ok {
			continue
		}
		desc, err := o.deps.Summarizer.SummarizeTable(ctx, table)
		if err != nil {
			o.logger.WarnContext(ctx, "table summary failed", "page", rec[content.PropPageNumber], "error", err)
			continue
		}
		rec[content.PropDescription] = desc
	}
	return recs
}

func (o *Orchestrator) normalizeAll(ct content.ContentType, recs []content.RawRecord, batch *Batch) {
	for _, rec := range recs {
		item, err := content.Normalize(ct, rec)
		if err != nil {
			o.logger.Warn("dropping record", "content_type", ct, "error", err)
			batch.Failed = append(batch.Failed, recordFailure(ct, rec, err))
			continue
		}
		batch.Items = append(batch.Items, item)
	}
}

// Run collects src and ingests the batch. Failures from every stage end up in
// the returned report, collection failures first.
func (o *Orchestrator) Run(ctx context.Context, src Sources) (ingest.Report, error) {
	batch, err := o.Collect(ctx, src)
	if err != nil {
		return ingest.Report{Failed: batch.Failed}, err
	}
	return o.IngestBatch(ctx, batch)
}

// IngestBatch stores the items of batch and records all failures. Collection
// failures keep Index -1; Ingested on the result equals len(batch.Items).
func (o *Orchestrator) IngestBatch(ctx context.Context, batch Batch) (ingest.Report, error) {
	combined := ingest.Report{Failed: append([]ingest.Failure{}, batch.Failed...)}
	if o.deps.Ingester == nil {
		return combined, fmt.Errorf("%w: ingestion", ErrNotConfigured)
	}

	report, err := o.deps.Ingester.Ingest(ctx, batch.Items)
	combined.Merge(report, 0)
	o.record(ctx, combined.Failed)
	return combined, err
}

// Enqueue collects src and publishes the items for queue consumers. Collection
// failures are recorded here; ingestion failures are recorded by the consumers.
func (o *Orchestrator) Enqueue(ctx context.Context, src Sources, pub ItemPublisher) (int, []ingest.Failure, error) {
	batch, err := o.Collect(ctx, src)
	o.record(ctx, batch.Failed)
	if err != nil {
		return 0, batch.Failed, err
	}
	n, err := pub.PublishItems(ctx, batch.Items)
	return n, batch.Failed, err
}

func (o *Orchestrator) record(ctx context.Context, failed []ingest.Failure) {
	if o.deps.Recorder == nil || len(failed) == 0 {
		return
	}
	if err := o.deps.Recorder.Record(ctx, failed); err != nil {
		o.logger.ErrorContext(ctx, "failed to record ingestion failures", "count", len(failed), "error", err)
	}
}

// Ask answers query from the stored collection. A failed retrieval is logged
// and answered from the empty-result context instead of surfacing the error.
func (o *Orchestrator) Ask(ctx context.Context, query string) (*answer.Answer, error) {
	if o.deps.Answerer == nil {
		return nil, fmt.Errorf("%w: answering", ErrNotConfigured)
	}

	var results []content.Result
	if o.deps.Retriever != nil && strings.TrimSpace(query) != "" {
		var err error
		results, err = o.deps.Retriever.Retrieve(ctx, query, o.searchLimit)
		if err != nil {
			o.logger.WarnContext(ctx, "retrieval failed, answering without context", "error", err)
			results = nil
		}
	}

	return o.deps.Answerer.Answer(ctx, query, results)
}

func audioFailure(url string, err error) ingest.Failure {
	return ingest.NewRecordFailure(content.TypeAudio, []string{url}, map[string]any{content.PropURL: url}, err)
}

func sourceFailure(doc string, err error) ingest.Failure {
	return ingest.NewRecordFailure("", []string{doc}, map[string]any{content.PropSourceDocument: doc}, err)
}

func recordFailure(ct content.ContentType, rec content.RawRecord, err error) ingest.Failure {
	payload := make(map[string]any, len(rec)+1)
	for k, v := range rec {
		payload[k] = v
	}
	payload[content.PropContentType] = string(ct)
	return ingest.NewRecordFailure(ct, nil, payload, err)
}
