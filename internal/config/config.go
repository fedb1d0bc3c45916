// ABOUTME: Centralized configuration for the edurag engine, CLI, and MCP server
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Provider names for the embedding and generative services
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Store backend names
const (
	StoreSQLite = "sqlite"
	StoreQdrant = "qdrant"
	StoreCharm  = "charm"
)

// Config holds all configuration for the engine
type Config struct {
	// Service provider settings
	Provider       string
	OpenAIKey      string
	OpenAIBaseURL  string
	GeminiKey      string
	ChatModel      string
	EmbeddingModel string

	// Timeouts and retries. Query-path calls are never retried.
	QueryTimeout  time.Duration
	IngestTimeout time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	IngestWorkers int

	// Vector store settings
	Store            string
	DBPath           string
	QdrantHost       string
	QdrantPort       int
	QdrantCollection string
	VectorDimension  int
	CharmHost        string
	CharmDBName      string
	AutoSync         bool

	// Engine settings
	ChunkSize      int
	ChunkOverlap   int
	TopK           int
	FailOpen       bool
	VocabularyFile string

	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	provider := getEnv("EDURAG_PROVIDER", ProviderOpenAI)

	cfg := &Config{
		Provider:         provider,
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		GeminiKey:        os.Getenv("GEMINI_API_KEY"),
		ChatModel:        getEnv("EDURAG_CHAT_MODEL", defaultChatModel(provider)),
		EmbeddingModel:   getEnv("EDURAG_EMBEDDING_MODEL", defaultEmbeddingModel(provider)),
		QueryTimeout:     getEnvDuration("EDURAG_QUERY_TIMEOUT", 30*time.Second),
		IngestTimeout:    getEnvDuration("EDURAG_INGEST_TIMEOUT", 30*time.Second),
		MaxRetries:       getEnvInt("EDURAG_MAX_RETRIES", 3),
		RetryDelay:       getEnvDuration("EDURAG_RETRY_DELAY", 2*time.Second),
		IngestWorkers:    getEnvInt("EDURAG_INGEST_WORKERS", 4),
		Store:            getEnv("EDURAG_STORE", StoreSQLite),
		DBPath:           os.Getenv("EDURAG_DB_PATH"),
		QdrantHost:       getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:       getEnvInt("QDRANT_PORT", 6334),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "educational_content"),
		VectorDimension:  getEnvInt("EDURAG_VECTOR_DIMENSION", defaultDimension(provider)),
		CharmHost:        getEnv("CHARM_HOST", "cloud.charm.sh"),
		CharmDBName:      getEnv("CHARM_DB", "edurag"),
		AutoSync:         getEnvBool("CHARM_AUTO_SYNC", true),
		ChunkSize:        getEnvInt("EDURAG_CHUNK_SIZE", 300),
		ChunkOverlap:     getEnvInt("EDURAG_CHUNK_OVERLAP", 75),
		TopK:             getEnvInt("EDURAG_TOP_K", 8),
		FailOpen:         getEnvBool("EDURAG_FAIL_OPEN", true),
		VocabularyFile:   os.Getenv("EDURAG_VOCABULARY_FILE"),
		LogLevel:         getEnv("EDURAG_LOG_LEVEL", "info"),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("EDURAG_PROVIDER must be openai or gemini, got %q", c.Provider)
	}
	switch c.Store {
	case StoreSQLite, StoreQdrant, StoreCharm:
	default:
		return fmt.Errorf("EDURAG_STORE must be sqlite, qdrant, or charm, got %q", c.Store)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("EDURAG_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.IngestWorkers <= 0 {
		return fmt.Errorf("EDURAG_INGEST_WORKERS must be positive, got %d", c.IngestWorkers)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("EDURAG_CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("EDURAG_CHUNK_OVERLAP must be 0-%d, got %d", c.ChunkSize-1, c.ChunkOverlap)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("EDURAG_TOP_K must be positive, got %d", c.TopK)
	}
	if c.QueryTimeout <= 0 || c.IngestTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive, got query=%v ingest=%v", c.QueryTimeout, c.IngestTimeout)
	}
	if c.VectorDimension <= 0 {
		return fmt.Errorf("EDURAG_VECTOR_DIMENSION must be positive, got %d", c.VectorDimension)
	}
	return nil
}

// RequireCredentials checks that the selected provider has an API key
func (c *Config) RequireCredentials() error {
	switch c.Provider {
	case ProviderGemini:
		if c.GeminiKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when EDURAG_PROVIDER=gemini")
		}
	default:
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when EDURAG_PROVIDER=openai")
		}
	}
	return nil
}

// QdrantAddr returns the gRPC address of the Qdrant server
func (c *Config) QdrantAddr() string {
	return fmt.Sprintf("%s:%d", c.QdrantHost, c.QdrantPort)
}

func defaultChatModel(provider string) string {
	if provider == ProviderGemini {
		return "gemini-2.0-flash"
	}
	return "gpt-4o-mini"
}

func defaultEmbeddingModel(provider string) string {
	if provider == ProviderGemini {
		return "text-embedding-004"
	}
	return "text-embedding-3-small"
}

func defaultDimension(provider string) int {
	if provider == ProviderGemini {
		return 768
	}
	return 1536
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
