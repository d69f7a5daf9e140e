package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
	}

	// Database configuration
	Database struct {
		// Path is the SQLite database file; ":memory:" for an in-memory store
		Path        string
		BusyTimeout time.Duration
	}

	// Ollama backend configuration
	Ollama struct {
		BaseURL string
		// Timeout bounds a whole streaming exchange; generation can be slow
		Timeout time.Duration
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
	}

	// Feature limits
	Features struct {
		MaxAttachmentBytes int64
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables.
// Uses singleton pattern to ensure only one instance exists.
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "8081")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)

		// Database config
		instance.Database.Path = getEnvString("DB_PATH", "chat.db")
		instance.Database.BusyTimeout = getEnvDuration("DB_BUSY_TIMEOUT", 5*time.Second)

		// Ollama config
		instance.Ollama.BaseURL = getEnvString("OLLAMA_URL", "http://localhost:11434")
		instance.Ollama.Timeout = getEnvDuration("OLLAMA_TIMEOUT", 10*time.Minute)

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")

		// Security config
		instance.Security.RateLimit = getEnvFloat("RATE_LIMIT", 10)
		instance.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 20)

		// Feature limits
		instance.Features.MaxAttachmentBytes = getEnvInt64("MAX_ATTACHMENT_BYTES", 32*1024*1024)
	})

	return instance
}

// Get returns the current configuration instance, creating it if needed
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

func getEnvString(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
