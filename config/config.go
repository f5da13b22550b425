// Package config loads deepresearch settings from an optional config file,
// a .env file and the environment.
//
// Environment variables use the DEEPRESEARCH_ prefix with dots replaced by
// underscores, e.g. DEEPRESEARCH_LLM_PROVIDER or DEEPRESEARCH_SEARCH_PROVIDER.
// The conventional provider variables (GOOGLE_API_KEY, GEMINI_API_KEY,
// OPENAI_API_KEY, BRAVE_API_KEY, TAVILY_API_KEY) are used when no prefixed
// key is set.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DEEPRESEARCH"

var (
	// ErrMissingCredential is returned when a selected provider has no API key.
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidConfig is returned for unknown providers or out-of-range values.
	ErrInvalidConfig = errors.New("invalid config")
)

// Supported providers and backends.
var (
	LLMProviders    = []string{"googleai", "genai", "openai", "langchain-openai"}
	SearchProviders = []string{"duckduckgo", "brave", "tavily"}
	StoreBackends   = []string{"memory", "sqlite", "postgres", "redis"}
)

// Config holds all deepresearch settings.
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm"`
	Search   SearchConfig   `mapstructure:"search"`
	Research ResearchConfig `mapstructure:"research"`
	Log      LogConfig      `mapstructure:"log"`
	Store    StoreConfig    `mapstructure:"store"`
	Server   ServerConfig   `mapstructure:"server"`
}

// LLMConfig selects and configures the language model.
type LLMConfig struct {
	Provider   string        `mapstructure:"provider"`
	Model      string        `mapstructure:"model"`
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Retries    int           `mapstructure:"retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// SearchConfig selects and configures the web search provider.
type SearchConfig struct {
	Provider     string `mapstructure:"provider"`
	BraveAPIKey  string `mapstructure:"brave_api_key"`
	TavilyAPIKey string `mapstructure:"tavily_api_key"`
	Endpoint     string `mapstructure:"endpoint"`
}

// ResearchConfig bounds the research workflow.
type ResearchConfig struct {
	MaxQueries       int           `mapstructure:"max_queries"`
	MaxResults       int           `mapstructure:"max_results"`
	MaxDocumentChars int           `mapstructure:"max_document_chars"`
	NodeTimeout      time.Duration `mapstructure:"node_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// StoreConfig selects the report archive backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	DSN     string `mapstructure:"dsn"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "googleai")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.retries", 0)
	v.SetDefault("llm.retry_delay", "1s")

	v.SetDefault("search.provider", "duckduckgo")
	v.SetDefault("search.brave_api_key", "")
	v.SetDefault("search.tavily_api_key", "")
	v.SetDefault("search.endpoint", "")

	v.SetDefault("research.max_queries", 3)
	v.SetDefault("research.max_results", 3)
	v.SetDefault("research.max_document_chars", 8000)
	v.SetDefault("research.node_timeout", "0s")

	v.SetDefault("log.level", "info")

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.dsn", "")

	v.SetDefault("server.address", ":8080")
}

// Load reads configuration. path names an explicit config file; when empty,
// deepresearch.{yaml,json,toml} is looked up in the working directory and
// $HOME/.config/deepresearch, and its absence is not an error. A .env file
// in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("deepresearch")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/deepresearch")
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyEnvFallbacks()
	return &cfg, nil
}

// applyEnvFallbacks fills empty API keys from the providers' conventional variables.
func (c *Config) applyEnvFallbacks() {
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "openai", "langchain-openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		default:
			c.LLM.APIKey = firstEnv("GOOGLE_API_KEY", "GEMINI_API_KEY")
		}
	}
	if c.Search.BraveAPIKey == "" {
		c.Search.BraveAPIKey = os.Getenv("BRAVE_API_KEY")
	}
	if c.Search.TavilyAPIKey == "" {
		c.Search.TavilyAPIKey = os.Getenv("TAVILY_API_KEY")
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks providers, credentials and limits. Missing keys for the
// selected providers are reported as ErrMissingCredential.
func (c *Config) Validate() error {
	if !slices.Contains(LLMProviders, c.LLM.Provider) {
		return fmt.Errorf("%w: unknown llm provider %q", ErrInvalidConfig, c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("%w: %s api key is required", ErrMissingCredential, c.LLM.Provider)
	}

	switch c.Search.Provider {
	case "duckduckgo":
	case "brave":
		if c.Search.BraveAPIKey == "" {
			return fmt.Errorf("%w: brave api key is required", ErrMissingCredential)
		}
	case "tavily":
		if c.Search.TavilyAPIKey == "" {
			return fmt.Errorf("%w: tavily api key is required", ErrMissingCredential)
		}
	default:
		return fmt.Errorf("%w: unknown search provider %q", ErrInvalidConfig, c.Search.Provider)
	}

	if c.Research.MaxQueries < 1 {
		return fmt.Errorf("%w: research.max_queries must be at least 1", ErrInvalidConfig)
	}
	if c.Research.MaxResults < 1 {
		return fmt.Errorf("%w: research.max_results must be at least 1", ErrInvalidConfig)
	}
	if c.Research.MaxDocumentChars < 1 {
		return fmt.Errorf("%w: research.max_document_chars must be at least 1", ErrInvalidConfig)
	}
	if c.Research.NodeTimeout < 0 || c.LLM.Retries < 0 {
		return fmt.Errorf("%w: negative timeout or retry count", ErrInvalidConfig)
	}

	if !slices.Contains(StoreBackends, c.Store.Backend) {
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}
	if c.Store.Backend != "memory" && c.Store.DSN == "" {
		return fmt.Errorf("%w: store.dsn is required for %s", ErrInvalidConfig, c.Store.Backend)
	}
	return nil
}
