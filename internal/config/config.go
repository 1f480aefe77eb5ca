package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/itsdone/internal/database"
	"github.com/ulule/limiter/v3"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable holding an optional YAML
// config file. Environment variables override values from the file.
const ConfigFileEnv = "ITSDONE_CONFIG"

// Config holds application configuration
type Config struct {
	StorageURL       string        `yaml:"storage_url"`
	ServerPort       string        `yaml:"server_port"`
	FrontendURL      string        `yaml:"frontend_url"`
	EnableHSTS       bool          `yaml:"enable_hsts"`
	AIProvider       string        `yaml:"ai_provider"`
	AIModel          string        `yaml:"ai_model"`
	AIBaseURL        string        `yaml:"ai_base_url"`
	AIAPIKey         string        `yaml:"ai_api_key"`
	MatchStrategy    string        `yaml:"match_strategy"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	RateLimit        string        `yaml:"rate_limit"`
	RedisURL         string        `yaml:"redis_url"`
	RabbitMQURL      string        `yaml:"rabbitmq_url"`
	RabbitMQPrefetch int           `yaml:"rabbitmq_prefetch"`
	DLQRetention     time.Duration `yaml:"dlq_retention"`
	DLQGCInterval    time.Duration `yaml:"dlq_gc_interval"`
	LogFormat        string        `yaml:"log_format"`
	WorkerDebugMode  bool          `yaml:"worker_debug_mode"`
	ServerDebugMode  bool          `yaml:"server_debug_mode"`
	OTELEnabled      bool          `yaml:"otel_enabled"`
	OTELEndpoint     string        `yaml:"otel_endpoint"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		StorageURL:       "itsdone.db",
		ServerPort:       "8080",
		FrontendURL:      "http://localhost:3000",
		AIProvider:       "gemini",
		MatchStrategy:    "substring",
		RequestTimeout:   60 * time.Second,
		RateLimit:        "30-M",
		RabbitMQPrefetch: 1,
		DLQRetention:     7 * 24 * time.Hour,
		DLQGCInterval:    time.Hour,
		LogFormat:        "json",
	}
}

// Load loads configuration from the optional config file and environment variables
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := Defaults()

	if path := getenv(ConfigFileEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	env := envReader(getenv)
	cfg.StorageURL = env.str("ITSDONE_STORAGE_URL", cfg.StorageURL)
	cfg.ServerPort = env.str("SERVER_PORT", cfg.ServerPort)
	cfg.FrontendURL = env.str("FRONTEND_URL", cfg.FrontendURL)
	cfg.EnableHSTS = env.boolean("ENABLE_HSTS", cfg.EnableHSTS)
	cfg.AIProvider = strings.ToLower(env.str("AI_PROVIDER", cfg.AIProvider))
	cfg.AIModel = env.str("AI_MODEL", cfg.AIModel)
	cfg.AIBaseURL = env.str("AI_BASE_URL", cfg.AIBaseURL)
	cfg.AIAPIKey = env.str("AI_API_KEY", cfg.AIAPIKey)
	if cfg.AIAPIKey == "" {
		// Fall back to the key variable each SDK documents
		switch cfg.AIProvider {
		case "openai":
			cfg.AIAPIKey = getenv("OPENAI_API_KEY")
		case "gemini":
			cfg.AIAPIKey = env.str("GEMINI_API_KEY", getenv("GOOGLE_API_KEY"))
		}
	}
	cfg.MatchStrategy = strings.ToLower(env.str("MATCH_STRATEGY", cfg.MatchStrategy))
	cfg.RequestTimeout = env.duration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RateLimit = env.str("RATE_LIMIT", cfg.RateLimit)
	cfg.RedisURL = env.str("REDIS_URL", cfg.RedisURL)
	cfg.RabbitMQURL = env.str("RABBITMQ_URL", cfg.RabbitMQURL)
	cfg.RabbitMQPrefetch = env.integer("RABBITMQ_PREFETCH", cfg.RabbitMQPrefetch)
	cfg.DLQRetention = env.duration("DLQ_RETENTION", cfg.DLQRetention)
	cfg.DLQGCInterval = env.duration("DLQ_GC_INTERVAL", cfg.DLQGCInterval)
	cfg.LogFormat = strings.ToLower(env.str("LOG_FORMAT", cfg.LogFormat))
	cfg.WorkerDebugMode = env.boolean("WORKER_DEBUG_MODE", cfg.WorkerDebugMode)
	cfg.ServerDebugMode = env.boolean("SERVER_DEBUG_MODE", cfg.ServerDebugMode)
	cfg.OTELEnabled = env.boolean("OTEL_ENABLED", cfg.OTELEnabled)
	cfg.OTELEndpoint = env.str("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTELEndpoint)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	var errs []error

	if _, _, err := database.ParseStorageURL(c.StorageURL); err != nil {
		errs = append(errs, fmt.Errorf("ITSDONE_STORAGE_URL: %w", err))
	}
	if port, err := strconv.Atoi(c.ServerPort); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT must be a port number, got %q", c.ServerPort))
	}
	switch c.AIProvider {
	case "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("AI_PROVIDER must be openai or gemini, got %q", c.AIProvider))
	}
	switch c.MatchStrategy {
	case "substring", "exact", "prefix":
	default:
		errs = append(errs, fmt.Errorf("MATCH_STRATEGY must be substring, exact or prefix, got %q", c.MatchStrategy))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive"))
	}
	if _, err := limiter.NewRateFromFormatted(c.RateLimit); err != nil {
		errs = append(errs, fmt.Errorf("RATE_LIMIT: %w", err))
	}
	if c.RabbitMQPrefetch < 1 {
		errs = append(errs, fmt.Errorf("RABBITMQ_PREFETCH must be at least 1"))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

// AIConfigured reports whether an AI provider can be created
func (c *Config) AIConfigured() bool {
	return c.AIAPIKey != ""
}

// ProviderSettings is the settings map handed to the AI provider registry
func (c *Config) ProviderSettings(debug bool) map[string]string {
	return map[string]string{
		"api_key":  c.AIAPIKey,
		"model":    c.AIModel,
		"base_url": c.AIBaseURL,
		"debug":    strconv.FormatBool(debug),
	}
}

type envReader func(string) string

func (e envReader) str(key, defaultValue string) string {
	if value := e(key); value != "" {
		return value
	}
	return defaultValue
}

func (e envReader) boolean(key string, defaultValue bool) bool {
	if value := e(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func (e envReader) integer(key string, defaultValue int) int {
	if value := e(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (e envReader) duration(key string, defaultValue time.Duration) time.Duration {
	if value := e(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
