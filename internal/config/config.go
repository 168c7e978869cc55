// Package config provides configuration management for local-memory.
// It loads settings from environment variables with the LOCALMEM_ prefix
// and provides sensible defaults for all configuration options.
//
// An optional YAML file (LOCALMEM_CONFIG_FILE) can supply a base layer;
// environment variables always take precedence over file values.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the local-memory service.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Embedding EmbeddingConfig
	Recall    RecallConfig
	Security  SecurityConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 7171)
	Host string // Server host (default: 127.0.0.1)
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	Engine      string // Storage engine: sqlite, postgres (default: sqlite)
	DataPath    string // Path to data directory for sqlite (default: ./data)
	PostgresDSN string // Postgres connection string when Engine is postgres
}

// EmbeddingConfig contains embedding provider configuration.
type EmbeddingConfig struct {
	OllamaURL         string  // Ollama API URL (default: http://localhost:11434)
	Model             string  // Embedding model name (default: nomic-embed-text)
	TimeoutSeconds    int     // Per-request timeout in seconds (default: 10)
	RequestsPerSecond float64 // Outbound rate limit; negative disables (default: 10)
}

// RecallConfig contains recall tuning defaults.
type RecallConfig struct {
	CandidateLimit int // Default candidate pool size (default: 1000)
}

// SecurityConfig contains authentication and throttling settings.
type SecurityConfig struct {
	APIToken       string  // API authentication token; empty disables auth
	RateLimitRPS   float64 // Inbound requests per second per server (default: 50)
	RateLimitBurst int     // Inbound burst allowance (default: 100)
}

// fileConfig mirrors Config for YAML decoding. Zero values mean unset and
// fall through to the built-in defaults.
type fileConfig struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`
	Storage struct {
		Engine      string `yaml:"engine"`
		DataPath    string `yaml:"data_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"storage"`
	Embedding struct {
		OllamaURL         string  `yaml:"ollama_url"`
		Model             string  `yaml:"model"`
		TimeoutSeconds    int     `yaml:"timeout_seconds"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"embedding"`
	Recall struct {
		CandidateLimit int `yaml:"candidate_limit"`
	} `yaml:"recall"`
	Security struct {
		APIToken       string  `yaml:"api_token"`
		RateLimitRPS   float64 `yaml:"rate_limit_rps"`
		RateLimitBurst int     `yaml:"rate_limit_burst"`
	} `yaml:"security"`
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the LOCALMEM_ prefix. When
// LOCALMEM_CONFIG_FILE points at a YAML file, its values replace the
// defaults but environment variables still win.
func LoadConfig() (*Config, error) {
	var file fileConfig
	if path := os.Getenv("LOCALMEM_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("LOCALMEM_PORT", orInt(file.Server.Port, 7171)),
			Host: getEnv("LOCALMEM_HOST", orString(file.Server.Host, "127.0.0.1")),
		},
		Storage: StorageConfig{
			Engine:      getEnv("LOCALMEM_STORAGE_ENGINE", orString(file.Storage.Engine, "sqlite")),
			DataPath:    getEnv("LOCALMEM_DATA_PATH", orString(file.Storage.DataPath, "./data")),
			PostgresDSN: getEnv("LOCALMEM_POSTGRES_DSN", file.Storage.PostgresDSN),
		},
		Embedding: EmbeddingConfig{
			OllamaURL:         getEnv("LOCALMEM_OLLAMA_URL", orString(file.Embedding.OllamaURL, "http://localhost:11434")),
			Model:             getEnv("LOCALMEM_EMBEDDING_MODEL", orString(file.Embedding.Model, "nomic-embed-text")),
			TimeoutSeconds:    getEnvInt("LOCALMEM_EMBEDDING_TIMEOUT_SECONDS", orInt(file.Embedding.TimeoutSeconds, 10)),
			RequestsPerSecond: getEnvFloat("LOCALMEM_EMBEDDING_RPS", orFloat(file.Embedding.RequestsPerSecond, 10)),
		},
		Recall: RecallConfig{
			CandidateLimit: getEnvInt("LOCALMEM_CANDIDATE_LIMIT", orInt(file.Recall.CandidateLimit, 1000)),
		},
		Security: SecurityConfig{
			APIToken:       getEnv("LOCALMEM_API_TOKEN", file.Security.APIToken),
			RateLimitRPS:   getEnvFloat("LOCALMEM_RATE_LIMIT_RPS", orFloat(file.Security.RateLimitRPS, 50)),
			RateLimitBurst: getEnvInt("LOCALMEM_RATE_LIMIT_BURST", orInt(file.Security.RateLimitBurst, 100)),
		},
	}

	if cfg.Storage.Engine != "sqlite" && cfg.Storage.Engine != "postgres" {
		return nil, fmt.Errorf("config: unsupported storage engine %q", cfg.Storage.Engine)
	}
	if cfg.Storage.Engine == "postgres" && cfg.Storage.PostgresDSN == "" {
		return nil, fmt.Errorf("config: LOCALMEM_POSTGRES_DSN is required for the postgres engine")
	}

	return cfg, nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as a float,
// it returns the default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func orString(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func orInt(value, fallback int) int {
	if value != 0 {
		return value
	}
	return fallback
}

func orFloat(value, fallback float64) float64 {
	if value != 0 {
		return value
	}
	return fallback
}
