package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalidValue    = errors.New("invalid configuration value")
)

const (
	EmbeddingProviderGemini = "gemini"
	EmbeddingProviderOpenAI = "openai"
)

type Config struct {
	WeaviateHost       string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme     string `envconfig:"WEAVIATE_SCHEME" default:"http"`
	WeaviateAPIKey     string `envconfig:"WEAVIATE_API_KEY"`
	WeaviateCollection string `envconfig:"WEAVIATE_COLLECTION" default:"RAGESGDocuments"`

	// Failure ledger
	DBHost        string `envconfig:"DB_HOST" default:"postgres"`
	DBPort        int    `envconfig:"DB_PORT" default:"5432"`
	DBUser        string `envconfig:"DB_USER" default:"esgrag"`
	DBPass        string `envconfig:"DB_PASS" default:"password"`
	DBName        string `envconfig:"DB_NAME" default:"esgrag"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	NSQLookupd         string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost           string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP           string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`
	NSQMaxMsgSize      int64  `envconfig:"NSQ_MAX_MSG_SIZE" default:"10485760"` // 10MB, images travel base64-encoded
	EnableIngestWorker bool   `envconfig:"ENABLE_INGEST_WORKER" default:"false"`
	IngestMaxAttempts  int    `envconfig:"INGEST_MAX_ATTEMPTS" default:"5"`

	// Models
	EmbeddingProvider     string `envconfig:"EMBEDDING_PROVIDER" default:"gemini"`
	GeminiAPIKey          string `envconfig:"GEMINI_API_KEY"`
	GeminiEmbeddingModel  string `envconfig:"GEMINI_EMBEDDING_MODEL" default:"gemini-embedding-001"`
	GeminiGenerationModel string `envconfig:"GEMINI_GENERATION_MODEL" default:"gemini-2.0-flash"`
	OpenAIAPIKey          string `envconfig:"OPENAI_API_KEY"`
	OpenAIEmbeddingModel  string `envconfig:"OPENAI_EMBEDDING_MODEL" default:"text-embedding-3-small"`
	WhisperModel          string `envconfig:"WHISPER_MODEL" default:"whisper-1"`

	// Acquisition and extraction
	UnstructuredURL    string   `envconfig:"UNSTRUCTURED_URL" default:"http://unstructured:8000"`
	UnstructuredAPIKey string   `envconfig:"UNSTRUCTURED_API_KEY"`
	YtDlpPath          string   `envconfig:"YTDLP_PATH" default:"yt-dlp"`
	DataDir            string   `envconfig:"DATA_DIR" default:"data"`
	ImageDir           string   `envconfig:"IMAGE_DIR" default:"data/images"`
	SnapshotDir        string   `envconfig:"SNAPSHOT_DIR" default:"transcriptions"`
	AudioURLs          []string `envconfig:"AUDIO_URLS" default:"https://www.youtube.com/watch?v=qP1JKWBBy80,https://www.youtube.com/watch?v=_p58cZIHDG4"`
	ReportPaths        []string `envconfig:"REPORT_PATHS" default:"data/Global_ESG_Flows_Q1_2024_Report.pdf"`

	// Ingestion
	IngestConcurrency     int     `envconfig:"INGEST_CONCURRENCY" default:"1"`
	ItemTimeoutSeconds    int     `envconfig:"ITEM_TIMEOUT_SECONDS" default:"60"`
	NearDuplicateDistance float64 `envconfig:"NEAR_DUPLICATE_DISTANCE" default:"0"`

	// Retrieval
	SearchLimit     int `envconfig:"SEARCH_LIMIT" default:"10"`
	MaxContextChars int `envconfig:"MAX_CONTEXT_CHARS" default:"8000"`

	// Server
	ServerPort   int    `envconfig:"SERVER_PORT" default:"8081"`
	QueryLogPath string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`

	SentryDSN         string `envconfig:"SENTRY_DSN"`
	SentryEnvironment string `envconfig:"SENTRY_ENVIRONMENT" default:"development"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Ignore errors, as env vars might be set in the shell
	_ = godotenv.Load(".env")

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.WeaviateHost == "" {
		return fmt.Errorf("%w: WEAVIATE_HOST", ErrMissingRequired)
	}
	if c.WeaviateCollection == "" {
		return fmt.Errorf("%w: WEAVIATE_COLLECTION", ErrMissingRequired)
	}
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	switch c.EmbeddingProvider {
	case EmbeddingProviderGemini, EmbeddingProviderOpenAI:
	default:
		return fmt.Errorf("%w: EMBEDDING_PROVIDER=%q", ErrInvalidValue, c.EmbeddingProvider)
	}
	if c.SearchLimit <= 0 {
		return fmt.Errorf("%w: SEARCH_LIMIT must be positive", ErrInvalidValue)
	}
	if c.MaxContextChars <= 0 {
		return fmt.Errorf("%w: MAX_CONTEXT_CHARS must be positive", ErrInvalidValue)
	}
	if c.IngestConcurrency < 1 {
		return fmt.Errorf("%w: INGEST_CONCURRENCY must be at least 1", ErrInvalidValue)
	}
	if c.NearDuplicateDistance < 0 {
		return fmt.Errorf("%w: NEAR_DUPLICATE_DISTANCE must not be negative", ErrInvalidValue)
	}
	return nil
}

func (c *Config) ItemTimeout() time.Duration {
	return time.Duration(c.ItemTimeoutSeconds) * time.Second
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName)
}
