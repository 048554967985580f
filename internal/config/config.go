package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Catalog    CatalogConfig
	Redis      RedisConfig
	Session    SessionConfig
	Extractor  ExtractorConfig
	Upload     UploadConfig
	Metrics    MetricsConfig
	Logging    LoggingConfig
	OpenAI     OpenAIConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, preferred over the individual fields
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int
	Host            string
	GinMode         string
	AllowedOrigins  string
	ShutdownTimeout time.Duration
}

// CatalogConfig selects where completed listings are persisted
type CatalogConfig struct {
	Driver     string // "postgres" or "sqlite"
	SQLitePath string
	VectorDim  int // 0 disables the embedding column
}

// RedisConfig holds the session store connection
type RedisConfig struct {
	URL       string // empty selects the in-process store
	KeyPrefix string
}

// SessionConfig holds per-session conversation settings
type SessionConfig struct {
	DefaultID string
	Header    string
	TTL       time.Duration // 0 keeps records until cleared
}

// ExtractorConfig holds field extraction settings
type ExtractorConfig struct {
	LLMTimeout time.Duration
	VocabFile  string
}

// UploadConfig holds save task settings
type UploadConfig struct {
	StepDelay    time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
	Retention    time.Duration // finished tasks are forgotten after this; 0 keeps them
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Namespace string
	Enabled   bool
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string // "debug" adds file:line to log lines
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey              string
	APIBase             string
	ChatModel           string // Model for field extraction
	ChatTemperature     float64
	ChatTopP            float64
	ChatMaxTokens       int
	ChatExtraBody       string // JSON string for extra_body
	EmbeddingModel      string // Model for listing embeddings
	EmbeddingDimensions int
	EmbeddingExtraBody  string // JSON string for extra_body (e.g., {"truncate":"NONE"})
	BatchSize           int
	Timeout             int
	Enabled             bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", getEnv("PG_DSN", ""))),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "property_listings"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8000),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:         getEnv("GIN_MODE", "release"),
			AllowedOrigins:  getEnv("CORS_ALLOWED_ORIGINS", "*"),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Catalog: CatalogConfig{
			Driver:     getEnv("CATALOG_DRIVER", "postgres"),
			SQLitePath: getEnv("CATALOG_SQLITE_PATH", "data/listings.db"),
			VectorDim:  getEnvAsInt("CATALOG_VECTOR_DIM", 0),
		},
		Redis: RedisConfig{
			URL:       getEnv("REDIS_URL", ""),
			KeyPrefix: getEnv("SESSION_KEY_PREFIX", "listing:session:"),
		},
		Session: SessionConfig{
			DefaultID: getEnv("SESSION_DEFAULT_ID", "default-user"),
			Header:    getEnv("SESSION_HEADER", "session-id"),
			TTL:       getEnvAsDuration("SESSION_TTL", 0),
		},
		Extractor: ExtractorConfig{
			LLMTimeout: getEnvAsDuration("EXTRACTOR_LLM_TIMEOUT", 10*time.Second),
			VocabFile:  getEnv("EXTRACTOR_VOCAB_FILE", ""),
		},
		Upload: UploadConfig{
			StepDelay:    getEnvAsDuration("UPLOAD_STEP_DELAY", time.Second),
			MaxAttempts:  getEnvAsInt("UPLOAD_MAX_ATTEMPTS", 3),
			RetryBackoff: getEnvAsDuration("UPLOAD_RETRY_BACKOFF", 2*time.Second),
			Retention:    getEnvAsDuration("UPLOAD_TASK_RETENTION", time.Hour),
		},
		Metrics: MetricsConfig{
			Namespace: getEnv("METRICS_NAMESPACE", "property_agent"),
			Enabled:   getEnv("METRICS_ENABLED", "true") == "true",
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		OpenAI: OpenAIConfig{
			APIKey:              getEnv("OPENAI_API_KEY", getEnv("LLM_API_KEY", "")),
			APIBase:             getEnv("OPENAI_API_BASE", "https://api.groq.com/openai/v1"),
			ChatModel:           getEnv("OPENAI_CHAT_MODEL", "llama-3.3-70b-versatile"),
			ChatTemperature:     getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.2),
			ChatTopP:            getEnvAsFloat("OPENAI_CHAT_TOP_P", 0.7),
			ChatMaxTokens:       getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 200),
			ChatExtraBody:       getEnv("OPENAI_CHAT_EXTRA_BODY", ""),
			EmbeddingModel:      getEnv("OPENAI_EMBEDDING_MODEL", ""),
			EmbeddingDimensions: getEnvAsInt("OPENAI_EMBEDDING_DIMENSIONS", 1024),
			EmbeddingExtraBody:  getEnv("OPENAI_EMBEDDING_EXTRA_BODY", ""),
			BatchSize:           getEnvAsInt("OPENAI_BATCH_SIZE", 100),
			Timeout:             getEnvAsInt("OPENAI_TIMEOUT", 30),
		},
	}
	cfg.OpenAI.Enabled = cfg.OpenAI.APIKey != ""

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the services cannot start with
func (c *Config) Validate() error {
	switch c.Catalog.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid CATALOG_DRIVER %q (expected postgres|sqlite)", c.Catalog.Driver)
	}
	if c.Upload.MaxAttempts < 1 {
		return fmt.Errorf("UPLOAD_MAX_ATTEMPTS must be at least 1, got %d", c.Upload.MaxAttempts)
	}
	if c.Session.DefaultID == "" {
		return fmt.Errorf("SESSION_DEFAULT_ID must not be empty")
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration value for %s, using default %s", key, defaultValue)
		return defaultValue
	}
	return value
}
