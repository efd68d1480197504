// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/jemygraw/deepresearch/pkg/log"
)

type Config struct {
	App       AppConfig
	LLM       LLMConfig
	Search    SearchConfig
	Index     IndexConfig
	Session   SessionConfig
	Web       WebConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Mode          string
	LogLevel      string
	TurnTimeout   time.Duration
	HistoryWindow int
	MaxIterations int
	MaxRevisions  int
	ReportPath    string
}

type LLMConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
}

type SearchConfig struct {
	TavilyAPIKey string
}

type IndexConfig struct {
	Backend      string // "memory", "chroma" or "pgvector"
	DocumentsDir string
	Collection   string
	ChromaURL    string
	PostgresURL  string
}

type SessionConfig struct {
	Backend       string // "memory", "sqlite", "redis" or "postgres"
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PostgresURL   string
}

type WebConfig struct {
	Addr string
}

type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

// Load reads configuration from the process environment. A .env file in the
// working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using process environment")
	}

	return &Config{
		App: AppConfig{
			Mode:          getEnv("AGENT_MODE", "LLM_Chaining"),
			LogLevel:      getEnv("LOG_LEVEL", "info"),
			TurnTimeout:   time.Duration(getEnvAsInt("TURN_TIMEOUT_SECONDS", 120)) * time.Second,
			HistoryWindow: getEnvAsInt("HISTORY_WINDOW", 20),
			MaxIterations: getEnvAsInt("MAX_ITERATIONS", 3),
			MaxRevisions:  getEnvAsInt("MAX_REVISIONS", 2),
			ReportPath:    getEnv("REPORT_PATH", "research_report.md"),
		},
		LLM: LLMConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			BaseURL:        getEnv("OPENAI_BASE_URL", ""),
			ChatModel:      getEnv("CHAT_MODEL", "gpt-4o-mini"),
			EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		},
		Search: SearchConfig{
			TavilyAPIKey: getEnv("TAVILY_API_KEY", ""),
		},
		Index: IndexConfig{
			Backend:      getEnv("INDEX_BACKEND", "memory"),
			DocumentsDir: getEnv("DOCUMENTS_DIR", "documents"),
			Collection:   getEnv("INDEX_COLLECTION", "opm_documents"),
			ChromaURL:    getEnv("CHROMA_URL", "http://localhost:8000"),
			PostgresURL:  getEnv("POSTGRES_URL", ""),
		},
		Session: SessionConfig{
			Backend:       getEnv("SESSION_BACKEND", "memory"),
			SQLitePath:    getEnv("SQLITE_PATH", "sessions.db"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			PostgresURL:   getEnv("POSTGRES_URL", ""),
		},
		Web: WebConfig{
			Addr: getEnv("WEB_ADDR", ":8080"),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "deepresearch"),
		},
	}
}

// Validate checks the settings every agent needs. It fails fast so a missing
// key surfaces at startup instead of on the first turn.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return errors.New("OPENAI_API_KEY is required")
	}
	if c.App.TurnTimeout <= 0 {
		return errors.New("TURN_TIMEOUT_SECONDS must be positive")
	}
	if c.App.HistoryWindow < 0 {
		return errors.New("HISTORY_WINDOW must not be negative")
	}
	if c.App.MaxIterations < 1 {
		return errors.New("MAX_ITERATIONS must be at least 1")
	}
	if c.App.MaxRevisions < 0 {
		return errors.New("MAX_REVISIONS must not be negative")
	}
	return nil
}

// ValidateWebSearch checks the settings of agents that search the web.
func (c *Config) ValidateWebSearch() error {
	if c.Search.TavilyAPIKey == "" {
		return errors.New("TAVILY_API_KEY is required for web search")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
