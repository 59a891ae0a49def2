// Package config provides application configuration with multi-source
// priority.
//
// Sources (highest to lowest):
//  1. Environment variables (runtime override)
//  2. Config file (~/.jarvis/config.yaml or ./config.yaml)
//  3. Default values
//
// Sensitive fields (API keys, database password) are masked in
// MarshalJSON; update it when adding new secrets.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Sentinel validation errors, checked with errors.Is.
var (
	ErrMissingAPIKey       = errors.New("missing API key")
	ErrInvalidModelName    = errors.New("invalid model name")
	ErrInvalidHistory      = errors.New("invalid history window")
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")
	ErrInvalidListenAddr   = errors.New("invalid listen address")
	ErrInvalidBaseURL      = errors.New("invalid base URL")
)

// Defaults.
const (
	DefaultModelName     = "llama-3.3-70b-versatile"
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultHistoryWindow bounds how many stored turns feed the prompt.
	DefaultHistoryWindow = 100

	// MaxHistoryWindow is the absolute ceiling, preventing unbounded
	// prompt growth.
	MaxHistoryWindow = 10000
)

// Config stores application configuration.
type Config struct {
	// Completion endpoint (OpenAI-compatible; Groq in production).
	CompletionBaseURL string `mapstructure:"completion_base_url" json:"completion_base_url"`
	GroqAPIKey        string `mapstructure:"groq_api_key" json:"groq_api_key"` // SENSITIVE: masked in MarshalJSON
	ModelName         string `mapstructure:"model_name" json:"model_name"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" json:"requests_per_minute"`

	// Embedding model, served through Genkit's Google AI plugin. The
	// plugin reads GEMINI_API_KEY directly from the environment.
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`

	// Evidence collectors.
	ShallowSearchURL string `mapstructure:"shallow_search_url" json:"shallow_search_url"`
	SearxURL         string `mapstructure:"searx_url" json:"searx_url"`
	SearchTimeoutMS  int    `mapstructure:"search_timeout_ms" json:"search_timeout_ms"`

	// Prompt assembly.
	SystemPrompt  string `mapstructure:"system_prompt" json:"system_prompt"`
	HistoryWindow int    `mapstructure:"history_window" json:"history_window"`

	// HTTP server.
	ListenAddr  string   `mapstructure:"listen_addr" json:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`

	// Storage. DatabaseURL empty selects the in-memory store (dev mode).
	DatabaseURL string `mapstructure:"database_url" json:"database_url"` // SENSITIVE: masked in MarshalJSON
}

// SearchTimeout returns the evidence-collector timeout as a duration.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutMS) * time.Millisecond
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	configDir := filepath.Join(home, ".jarvis")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("completion_base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("model_name", DefaultModelName)
	viper.SetDefault("requests_per_minute", 0)

	viper.SetDefault("embedder_model", DefaultEmbedderModel)

	viper.SetDefault("shallow_search_url", "https://html.duckduckgo.com/html/")
	viper.SetDefault("searx_url", "")
	viper.SetDefault("search_timeout_ms", 10000)

	viper.SetDefault("system_prompt", "")
	viper.SetDefault("history_window", DefaultHistoryWindow)

	viper.SetDefault("listen_addr", ":8000")
	viper.SetDefault("cors_origins", []string{"http://localhost:5173"})

	viper.SetDefault("database_url", "")
}

// bindEnvVariables binds environment overrides explicitly. Secrets come
// only from the environment, never the config file on disk.
func bindEnvVariables() {
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("groq_api_key", "GROQ_API_KEY")
	mustBind("database_url", "DATABASE_URL")
	mustBind("listen_addr", "JARVIS_LISTEN_ADDR")
	mustBind("model_name", "JARVIS_MODEL_NAME")
	mustBind("completion_base_url", "JARVIS_COMPLETION_BASE_URL")
	mustBind("shallow_search_url", "JARVIS_SHALLOW_SEARCH_URL")
	mustBind("searx_url", "JARVIS_SEARX_URL")
	mustBind("cors_origins", "JARVIS_CORS_ORIGINS")

	// NOTE: GEMINI_API_KEY is read directly by the Genkit plugin, not
	// via Viper; Validate does not require it because the embedder is
	// only exercised by deep search.
}

// Validate fails fast on configuration the process cannot run with.
func (c *Config) Validate() error {
	if c.GroqAPIKey == "" {
		return fmt.Errorf("%w: set GROQ_API_KEY", ErrMissingAPIKey)
	}
	if c.ModelName == "" {
		return ErrInvalidModelName
	}
	if c.HistoryWindow <= 0 || c.HistoryWindow > MaxHistoryWindow {
		return fmt.Errorf("%w: %d not in 1..%d", ErrInvalidHistory, c.HistoryWindow, MaxHistoryWindow)
	}
	if c.ListenAddr == "" {
		return ErrInvalidListenAddr
	}
	for _, raw := range []string{c.CompletionBaseURL, c.ShallowSearchURL, c.SearxURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidBaseURL, raw)
		}
	}
	return nil
}

// maskedValue replaces secrets in marshaled output. Full-width blocks so
// no substring of a real secret survives.
const maskedValue = "████████"

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return maskedValue
}

// MarshalJSON masks sensitive fields so the config can be logged.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.GroqAPIKey = maskSecret(c.GroqAPIKey)
	a.DatabaseURL = maskSecret(c.DatabaseURL)
	return json.Marshal(a)
}
