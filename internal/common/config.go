package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // sqlite | postgres
	DSN              string // file path for sqlite, URL for postgres
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
	GRPCAddr string
	APIKey   string // empty disables the X-API-Key check
	// RateLimit caps submissions per client per minute; 0 disables it.
	RateLimit       int
	ShutdownTimeout time.Duration
}

// LLMConfig holds oracle-related configuration
type LLMConfig struct {
	Provider          string // openai | gemini
	Model             string
	APIKey            string
	BaseURL           string
	Temperature       float32
	Timeout           time.Duration
	MaxOutputTokens   int
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int // transport-level retries inside one gemini call; 0 disables
}

// PipelineConfig holds reducer, profile and worker settings
type PipelineConfig struct {
	MinBlockChars  int
	ProfilePath    string
	PromptDir      string // optional overrides for the prompt templates
	WatchDir       string // jobfitd watches it for new postings when set
	Workers        int
	QueueSize      int
	ProcessTimeout time.Duration
	Evaluate       bool
	Tailor         bool
}

// LoadConfig loads configuration from a .env file (if any) and the environment
func LoadConfig() *Config {
	_ = godotenv.Load()

	provider := strings.ToLower(getEnv("LLM_PROVIDER", "openai"))
	return &Config{
		Database: DatabaseConfig{
			Driver:           strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			DSN:              getEnv("DB_URL", "jobfit.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr:        getEnv("GRPC_ADDR", ":8081"),
			APIKey:          getEnv("API_KEY", ""),
			RateLimit:       getEnvAsInt("HTTP_RATE_LIMIT", 60),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		LLM: LLMConfig{
			Provider:          provider,
			Model:             getEnv("LLM_MODEL", defaultModel(provider)),
			APIKey:            getEnv("LLM_API_KEY", providerKey(provider)),
			BaseURL:           getEnv("LLM_BASE_URL", ""),
			Temperature:       getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:           getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
			MaxOutputTokens:   getEnvAsInt("LLM_MAX_OUTPUT_TOKENS", 4096),
			RequestsPerSecond: getEnvAsFloat64("LLM_RPS", 1.0),
			Burst:             getEnvAsInt("LLM_BURST", 2),
			MaxRetries:        getEnvAsInt("LLM_MAX_RETRIES", 0),
		},
		Pipeline: PipelineConfig{
			MinBlockChars:  getEnvAsInt("REDUCER_MIN_BLOCK_CHARS", 20),
			ProfilePath:    getEnv("RESUME_PROFILE", "configs/master_cv.yaml"),
			PromptDir:      getEnv("PROMPT_DIR", ""),
			WatchDir:       getEnv("WATCH_DIR", ""),
			Workers:        getEnvAsInt("PIPELINE_WORKERS", 2),
			QueueSize:      getEnvAsInt("PIPELINE_QUEUE_SIZE", 64),
			ProcessTimeout: getEnvAsDuration("PIPELINE_TIMEOUT", 3*time.Minute),
			Evaluate:       getEnvAsBool("PIPELINE_EVALUATE", true),
			Tailor:         getEnvAsBool("PIPELINE_TAILOR", false),
		},
	}
}

func defaultModel(provider string) string {
	if provider == "gemini" {
		return "gemini-2.0-flash"
	}
	return "gpt-4o-mini"
}

func providerKey(provider string) string {
	if provider == "gemini" {
		return os.Getenv("GEMINI_API_KEY")
	}
	return os.Getenv("OPENAI_API_KEY")
}

// Helper functions for environment variable parsing
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("DB_DRIVER", c.Database.Driver, OneOf("sqlite", "postgres")).
		Field("DB_URL", c.Database.DSN, Required).
		Field("LLM_PROVIDER", c.LLM.Provider, OneOf("openai", "gemini")).
		Field("LLM_API_KEY", c.LLM.APIKey, Required)
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	if c.LLM.MaxRetries < 0 {
		return NewAppError(CodeConfig, "LLM_MAX_RETRIES must not be negative", ErrInvalidInput)
	}
	if c.Pipeline.MinBlockChars < 0 {
		return NewAppError(CodeConfig, "REDUCER_MIN_BLOCK_CHARS must not be negative", ErrInvalidInput)
	}
	if c.Pipeline.Workers <= 0 || c.Pipeline.QueueSize <= 0 {
		return NewAppError(CodeConfig, "PIPELINE_WORKERS and PIPELINE_QUEUE_SIZE must be positive", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError(CodeConfig, "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
