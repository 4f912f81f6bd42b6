package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"esgrag/features/failure"
	"esgrag/internal/adapter/gemini"
	"esgrag/internal/adapter/openai"
	"esgrag/internal/adapter/unstructured"
	wstore "esgrag/internal/adapter/weaviate"
	"esgrag/internal/answer"
	"esgrag/internal/config"
	"esgrag/internal/ingest"
	"esgrag/internal/pipeline"
	"esgrag/internal/retrieval"
	"esgrag/internal/source"
	"esgrag/internal/summary"
	"esgrag/internal/telemetry"
	"esgrag/internal/worker"
)

// Services is the wired application graph shared by the HTTP server and the CLI.
type Services struct {
	Store     *wstore.Store
	Ingestor  *ingest.Ingestor
	Retrieval *retrieval.Service
	Pipeline  *pipeline.Orchestrator
	// Failures is nil when the ledger database was not opened.
	Failures *failure.Service
	// Publisher is nil when no NSQ producer is available.
	Publisher *worker.Publisher
	Consumer  *worker.ItemConsumer

	closers []func()
}

func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// NewEmbedder selects the embedding backend named by cfg.EmbeddingProvider.
func NewEmbedder(ctx context.Context, cfg *config.Config) (ingest.Embedder, func(), error) {
	switch cfg.EmbeddingProvider {
	case config.EmbeddingProviderOpenAI:
		client, err := openai.NewClient(cfg.OpenAIAPIKey, "")
		if err != nil {
			return nil, nil, fmt.Errorf("%w: OPENAI_API_KEY", config.ErrMissingRequired)
		}
		return openai.NewEmbedder(client, cfg.OpenAIEmbeddingModel), func() {}, nil
	default:
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: GEMINI_API_KEY", config.ErrMissingRequired)
		}
		return gemini.NewEmbedder(client, cfg.GeminiEmbeddingModel), func() { _ = client.Close() }, nil
	}
}

func NewServices(ctx context.Context, cfg *config.Config, deps *Dependencies, logger *slog.Logger) (*Services, error) {
	if logger == nil {
		logger = slog.Default()
	}
	svcs := &Services{Store: deps.Store}

	embedder, closeEmbedder, err := NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svcs.closers = append(svcs.closers, closeEmbedder)

	ingestOpts := []ingest.Option{
		ingest.WithConcurrency(cfg.IngestConcurrency),
		ingest.WithItemTimeout(cfg.ItemTimeout()),
		ingest.WithLogger(logger),
	}
	if cfg.NearDuplicateDistance > 0 {
		ingestOpts = append(ingestOpts, ingest.WithNearDuplicateCheck(deps.Store, cfg.NearDuplicateDistance))
	}
	ingestor, err := ingest.New(deps.Store, embedder, ingestOpts...)
	if err != nil {
		svcs.Close()
		return nil, err
	}
	svcs.Ingestor = ingestor
	svcs.closers = append(svcs.closers, ingestor.Release)

	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		logger.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	svcs.closers = append(svcs.closers, func() {
		if err := queryLogger.Close(); err != nil {
			logger.Warn("failed to close query log", "error", err)
		}
	})
	svcs.Retrieval = retrieval.NewService(embedder, deps.Store, queryLogger)

	pdeps := pipeline.Deps{
		Extractor: unstructured.NewClient(cfg.UnstructuredURL, cfg.UnstructuredAPIKey, cfg.ImageDir),
		Ingester:  ingestor,
		Retriever: svcs.Retrieval,
	}

	if client, err := openai.NewClient(cfg.OpenAIAPIKey, ""); err == nil {
		pdeps.Acquirer = source.NewDownloader(cfg.YtDlpPath, cfg.DataDir, source.ExecRunner{})
		pdeps.Transcriber = openai.NewTranscriber(client, cfg.WhisperModel)
	} else {
		logger.Warn("audio transcription disabled", "error", err)
	}

	if client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey); err == nil {
		svcs.closers = append(svcs.closers, func() { _ = client.Close() })
		generator := gemini.NewGenerator(client, cfg.GeminiGenerationModel)
		pdeps.Summarizer = summary.New(generator)
		pdeps.Answerer = answer.NewAssembler(generator,
			answer.WithMaxContextChars(cfg.MaxContextChars),
			answer.WithLogger(logger),
		)
	} else {
		logger.Warn("answer generation and summarization disabled", "error", err)
	}

	var ledger telemetry.Recorder
	if deps.DB != nil {
		svcs.Failures = failure.NewService(failure.NewPostgresRepo(deps.DB), ingestor, logger)
		ledger = svcs.Failures
	}
	recorder := telemetry.NewCapturingRecorder(ledger)
	pdeps.Recorder = recorder

	svcs.Pipeline = pipeline.New(pdeps,
		pipeline.WithSnapshotDir(cfg.SnapshotDir),
		pipeline.WithSearchLimit(cfg.SearchLimit),
		pipeline.WithLogger(logger),
	)

	if deps.NSQProducer != nil {
		svcs.Publisher = worker.NewPublisher(deps.NSQProducer)
	}
	svcs.Consumer = worker.NewItemConsumer(ingestor, recorder, cfg.IngestMaxAttempts)

	return svcs, nil
}

// DefaultSources are the configured talks and reports.
func DefaultSources(cfg *config.Config) pipeline.Sources {
	return pipeline.Sources{AudioURLs: cfg.AudioURLs, Documents: cfg.ReportPaths}
}
