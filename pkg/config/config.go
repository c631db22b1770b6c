package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	Snapshot SnapshotConfig
	Draft    DraftConfig
	OpenAI   OpenAIConfig
	Events   EventsConfig
	OTEL     OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// SQLiteConfig holds the SQLite snapshot database location
type SQLiteConfig struct {
	Path string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Snapshot backends
const (
	SnapshotBackendFile     = "file"
	SnapshotBackendRedis    = "redis"
	SnapshotBackendPostgres = "postgres"
	SnapshotBackendSQLite   = "sqlite"
)

// SnapshotConfig controls where state snapshots are written and how often
type SnapshotConfig struct {
	Backend      string
	FilePath     string
	RedisKey     string
	Interval     time.Duration
	Retain       int
	SaveAttempts int
}

// Draft providers
const (
	DraftProviderHTTP   = "http"
	DraftProviderOpenAI = "openai"
	DraftProviderNone   = "none"
)

// DraftConfig holds drafting service configuration
type DraftConfig struct {
	Provider  string
	Endpoint  string
	Timeout   time.Duration
	Workers   int
	QueueSize int
}

// OpenAIConfig holds OpenAI configuration
type OpenAIConfig struct {
	APIKey         string
	Model          string
	RateLimitRPM   int
	RateLimitBurst int
}

// EventsConfig toggles lifecycle event publishing
type EventsConfig struct {
	Enabled bool
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "medical_query_review"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "data/state.db"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Snapshot: SnapshotConfig{
			Backend:      getEnv("SNAPSHOT_BACKEND", SnapshotBackendFile),
			FilePath:     getEnv("SNAPSHOT_FILE", "data/snapshot.json"),
			RedisKey:     getEnv("SNAPSHOT_REDIS_KEY", "medqueries:snapshot"),
			Interval:     getEnvAsDuration("SNAPSHOT_INTERVAL", 0),
			Retain:       getEnvAsInt("SNAPSHOT_RETAIN", 10),
			SaveAttempts: getEnvAsInt("SNAPSHOT_SAVE_ATTEMPTS", 5),
		},
		Draft: DraftConfig{
			Provider:  getEnv("DRAFT_PROVIDER", DraftProviderHTTP),
			Endpoint:  getEnv("DRAFT_ENDPOINT", "http://localhost:8000/draft"),
			Timeout:   getEnvAsDuration("DRAFT_TIMEOUT", 10*time.Second),
			Workers:   getEnvAsInt("DRAFT_WORKERS", 4),
			QueueSize: getEnvAsInt("DRAFT_QUEUE_SIZE", 128),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			RateLimitRPM:   getEnvAsInt("OPENAI_RATE_LIMIT_RPM", 60),
			RateLimitBurst: getEnvAsInt("OPENAI_RATE_LIMIT_BURST", 5),
		},
		Events: EventsConfig{
			Enabled: getEnvAsBool("EVENTS_ENABLED", false),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "medical-query-review"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Snapshot.Backend {
	case SnapshotBackendFile, SnapshotBackendRedis, SnapshotBackendPostgres, SnapshotBackendSQLite:
	default:
		return fmt.Errorf("unknown SNAPSHOT_BACKEND %q", c.Snapshot.Backend)
	}
	switch c.Draft.Provider {
	case DraftProviderHTTP, DraftProviderOpenAI, DraftProviderNone:
	default:
		return fmt.Errorf("unknown DRAFT_PROVIDER %q", c.Draft.Provider)
	}
	if c.Draft.Timeout <= 0 {
		return fmt.Errorf("DRAFT_TIMEOUT must be positive")
	}
	if c.Snapshot.SaveAttempts < 1 {
		c.Snapshot.SaveAttempts = 1
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
