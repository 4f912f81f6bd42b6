package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nsqio/go-nsq"

	"esgrag/features/ask"
	"esgrag/features/failure"
	feature "esgrag/features/ingest"
	"esgrag/features/mcp"
	"esgrag/features/stats"
	"esgrag/internal/config"
	"esgrag/internal/middleware"
	"esgrag/internal/pipeline"
)

var ErrLedgerRequired = errors.New("failure ledger database required")

type App struct {
	Handler  http.Handler
	services *Services
	cfg      *config.Config
}

func New(cfg *config.Config, svcs *Services, logger *slog.Logger) (*App, error) {
	if svcs.Failures == nil {
		return nil, ErrLedgerRequired
	}
	if logger == nil {
		logger = slog.Default()
	}

	var publisher pipeline.ItemPublisher
	if svcs.Publisher != nil {
		publisher = svcs.Publisher
	}

	ingestHandler := feature.NewHandler(svcs.Pipeline, publisher, svcs.Store, DefaultSources(cfg))
	askHandler := ask.NewHandler(svcs.Pipeline, svcs.Retrieval, cfg.SearchLimit)
	failureHandler := failure.NewHandler(svcs.Failures)
	statsHandler := stats.NewHandler(svcs.Failures, svcs.Store)
	mcpHandler := mcp.NewHandler(svcs.Retrieval, svcs.Pipeline)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /ingest", middleware.CorrelationID(enableCORS(ingestHandler.Ingest)))
	mux.Handle("DELETE /collection", middleware.CorrelationID(enableCORS(ingestHandler.Reset)))

	mux.Handle("POST /ask", middleware.CorrelationID(enableCORS(askHandler.Ask)))
	mux.Handle("POST /search", middleware.CorrelationID(enableCORS(askHandler.Search)))

	mux.Handle("GET /failures", middleware.CorrelationID(enableCORS(failureHandler.List)))
	mux.Handle("POST /failures/{id}/retry", middleware.CorrelationID(enableCORS(failureHandler.Retry)))

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	mux.Handle("/mcp", middleware.CorrelationID(mcpHandler)) // Legacy POST endpoint
	mux.Handle("GET /mcp/sse", middleware.CorrelationID(enableCORS(mcpHandler.HandleSSE)))
	mux.Handle("POST /mcp/messages", middleware.CorrelationID(enableCORS(mcpHandler.HandleMessage)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	logger.Info("routes registered", "collection", svcs.Store.ClassName(), "queue", publisher != nil)

	return &App{
		Handler:  mux,
		services: svcs,
		cfg:      cfg,
	}, nil
}

// Run serves HTTP until ctx is canceled. With ENABLE_INGEST_WORKER set it also
// consumes queued items.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.EnableIngestWorker {
		consumer, err := a.startConsumer()
		if err != nil {
			return err
		}
		defer consumer.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.ServerPort),
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.cfg.ServerPort)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) startConsumer() (*nsq.Consumer, error) {
	nsqCfg := nsq.NewConfig()
	nsqCfg.MaxAttempts = uint16(a.cfg.IngestMaxAttempts) // #nosec G115 -- bounded by config
	consumer, err := nsq.NewConsumer(config.TopicIngestItem, config.ChannelIngestWorker, nsqCfg)
	if err != nil {
		return nil, fmt.Errorf("nsq consumer error: %w", err)
	}
	consumer.AddHandler(nsq.HandlerFunc(a.services.Consumer.HandleMessage))
	if err := consumer.ConnectToNSQLookupd(a.cfg.NSQLookupd); err != nil {
		consumer.Stop()
		return nil, fmt.Errorf("failed to connect to NSQLookupd: %w", err)
	}
	slog.Info("NSQ item consumer connected", "topic", config.TopicIngestItem)
	return consumer, nil
}
