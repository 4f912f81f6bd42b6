package ingest

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"esgrag/internal/content"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Store interface {
	Exists(ctx context.Context, id string) (bool, error)
	// Put must reject a second create for the same id with content.ErrAlreadyExists.
	Put(ctx context.Context, rec content.Record) error
}

// NearestFinder backs the optional near-duplicate heuristic.
type NearestFinder interface {
	NearVector(ctx context.Context, vector []float32, limit int) ([]content.Result, error)
}

const DefaultItemTimeout = 60 * time.Second

// Ingestor stores items at most once per identity. Existence is checked by id
// before embedding, so re-ingesting stored items costs no embedding calls.
type Ingestor struct {
	store    Store
	embedder Embedder
	logger   *slog.Logger

	concurrency int
	pool        *ants.Pool
	locks       *keyedMutex
	itemTimeout time.Duration

	nearFinder   NearestFinder
	nearDistance float32
}

// Option configures an Ingestor.
type Option func(*Ingestor) error

// WithConcurrency processes up to n items at once. Items sharing an id are
// still handled one at a time. Default is 1, which keeps input order.
func WithConcurrency(n int) Option {
	return func(i *Ingestor) error {
		if n < 1 {
			n = 1
		}
		i.concurrency = n
		return nil
	}
}

// WithItemTimeout bounds the store and embedding calls of a single item.
func WithItemTimeout(d time.Duration) Option {
	return func(i *Ingestor) error {
		if d > 0 {
			i.itemTimeout = d
		}
		return nil
	}
}

// WithNearDuplicateCheck skips new items whose nearest stored neighbour lies
// within maxDistance. This is a similarity heuristic reported separately from
// identity skips; a zero distance disables it.
func WithNearDuplicateCheck(finder NearestFinder, maxDistance float64) Option {
	return func(i *Ingestor) error {
		if finder != nil && maxDistance > 0 {
			i.nearFinder = finder
			i.nearDistance = float32(maxDistance)
		}
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(i *Ingestor) error {
		if logger == nil {
			logger = slog.Default()
		}
		i.logger = logger
		return nil
	}
}

func New(store Store, embedder Embedder, opts ...Option) (*Ingestor, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	i := &Ingestor{
		store:       store,
		embedder:    embedder,
		logger:      slog.Default(),
		concurrency: 1,
		locks:       newKeyedMutex(),
		itemTimeout: DefaultItemTimeout,
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	i.logger = i.logger.With("component", "ingestor")

	if i.concurrency > 1 {
		pool, err := ants.NewPool(i.concurrency)
		if err != nil {
			return nil, err
		}
		i.pool = pool
	}

	return i, nil
}

// Release frees the worker pool. The ingestor must not be used afterwards.
func (i *Ingestor) Release() {
	if i.pool != nil {
		i.pool.Release()
	}
}

type outcome int

const (
	outcomeWritten outcome = iota
	outcomeSkipped
	outcomeNearDuplicate
	outcomeFailed
)

type itemResult struct {
	outcome outcome
	failure Failure
}

// Ingest embeds and stores every item whose id is not yet present. A failing
// item never aborts the batch; it is listed in Report.Failed in input order.
// The returned error is non-nil only when ctx ends before all items ran.
func (i *Ingestor) Ingest(ctx context.Context, items []content.Item) (Report, error) {
	results := make([]itemResult, len(items))

	if i.pool == nil {
		for idx, item := range items {
			if ctx.Err() != nil {
				results[idx] = failed(idx, item, ctx.Err())
				continue
			}
			results[idx] = i.ingestOne(ctx, idx, item)
		}
	} else {
		var wg sync.WaitGroup
		for idx, item := range items {
			wg.Add(1)
			err := i.pool.Submit(func() {
				defer wg.Done()
				if ctx.Err() != nil {
					results[idx] = failed(idx, item, ctx.Err())
					return
				}
				results[idx] = i.ingestOne(ctx, idx, item)
			})
			if err != nil {
				wg.Done()
				if errors.Is(err, ants.ErrPoolClosed) {
					err = ErrReleased
				}
				results[idx] = failed(idx, item, err)
			}
		}
		wg.Wait()
	}

	report := Report{Failed: []Failure{}}
	for _, r := range results {
		switch r.outcome {
		case outcomeWritten:
			report.Written++
		case outcomeSkipped:
			report.Skipped++
		case outcomeNearDuplicate:
			report.NearDuplicates++
		case outcomeFailed:
			report.Failed = append(report.Failed, r.failure)
		}
	}

	i.logger.InfoContext(ctx, "ingestion finished",
		"items", len(items),
		"written", report.Written,
		"skipped", report.Skipped,
		"near_duplicates", report.NearDuplicates,
		"failed", len(report.Failed),
	)

	return report, ctx.Err()
}

func failed(idx int, item content.Item, err error) itemResult {
	return itemResult{outcome: outcomeFailed, failure: NewFailure(idx, item, err)}
}

func (i *Ingestor) ingestOne(ctx context.Context, idx int, item content.Item) itemResult {
	if item == nil {
		return failed(idx, nil, &content.MissingFieldError{Field: "item"})
	}

	id, err := content.ID(item)
	if err != nil {
		i.logger.WarnContext(ctx, "rejecting item with invalid key", "index", idx, "content_type", item.Type(), "error", err)
		return failed(idx, item, err)
	}

	unlock := i.locks.Lock(id)
	defer unlock()

	itemCtx, cancel := context.WithTimeout(ctx, i.itemTimeout)
	defer cancel()

	log := i.logger.With("id", id, "content_type", item.Type())

	exists, err := i.store.Exists(itemCtx, id)
	if err != nil {
		log.ErrorContext(ctx, "existence check failed", "error", err)
		return failed(idx, item, asStoreError("exists", err))
	}
	if exists {
		log.DebugContext(ctx, "skipping stored item")
		return itemResult{outcome: outcomeSkipped}
	}

	text := item.EmbeddingText()
	if strings.TrimSpace(text) == "" {
		return failed(idx, item, &content.MissingFieldError{ContentType: item.Type(), Field: "embedding_text"})
	}

	vec, err := i.embedder.Embed(itemCtx, text)
	if err == nil && len(vec) == 0 {
		err = &content.EmbeddingError{Reason: "empty vector"}
	}
	if err != nil {
		log.ErrorContext(ctx, "embedding failed", "error", err)
		if !errors.Is(err, content.ErrEmbedding) {
			err = &content.EmbeddingError{Err: err}
		}
		return failed(idx, item, err)
	}

	if i.nearFinder != nil && i.isNearDuplicate(itemCtx, log, vec) {
		return itemResult{outcome: outcomeNearDuplicate}
	}

	err = i.store.Put(itemCtx, content.Record{ID: id, Vector: vec, Properties: item.Properties()})
	if errors.Is(err, content.ErrAlreadyExists) {
		// another writer stored the same id first
		log.DebugContext(ctx, "item stored concurrently, skipping")
		return itemResult{outcome: outcomeSkipped}
	}
	if err != nil {
		log.ErrorContext(ctx, "store write failed", "error", err)
		return failed(idx, item, asStoreError("put", err))
	}

	log.InfoContext(ctx, "item stored")
	return itemResult{outcome: outcomeWritten}
}

func (i *Ingestor) isNearDuplicate(ctx context.Context, log *slog.Logger, vec []float32) bool {
	nearest, err := i.nearFinder.NearVector(ctx, vec, 1)
	if err != nil {
		log.WarnContext(ctx, "near-duplicate check failed, storing anyway", "error", err)
		return false
	}
	if len(nearest) > 0 && nearest[0].Distance <= i.nearDistance {
		log.InfoContext(ctx, "skipping near-duplicate item", "neighbour", nearest[0].ID, "distance", nearest[0].Distance)
		return true
	}
	return false
}

func asStoreError(op string, err error) error {
	if errors.Is(err, content.ErrStore) {
		return err
	}
	return &content.StoreError{Op: op, Err: err}
}
