// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.ragstack/config.yaml)
//  3. Default values (match docker-compose.yml so the demo works out of the box)
//
// Main configuration categories:
//   - Chat: OpenAI-compatible model, temperature, max tokens
//   - Embedding: OpenAI-compatible embedding service (vLLM by default)
//   - Weaviate: vector database URL and collection name
//   - Readiness: poll interval and overall timeout for dependency gating
//   - Orchestration: compose file, data directory, UI launch command
//   - Datadog: optional APM tracing (see observability.go)
//
// Security: the API key is never logged; it is masked in MarshalJSON and
// String. The config directory is created with 0750 permissions.
//
// Error handling uses sentinel errors so callers can check with errors.Is()
// and wrap with fmt.Errorf("%w: details", ErrXxx).
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

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the OpenAI API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the chat model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidTopK indicates the retrieval top-k value is out of range.
	ErrInvalidTopK = errors.New("invalid top k")

	// ErrInvalidEmbeddingModel indicates the embedding model name is invalid.
	ErrInvalidEmbeddingModel = errors.New("invalid embedding model")

	// ErrInvalidWeaviateURL indicates the Weaviate URL cannot be used.
	ErrInvalidWeaviateURL = errors.New("invalid Weaviate URL")

	// ErrInvalidEmbeddingURL indicates the embedding service URL cannot be used.
	ErrInvalidEmbeddingURL = errors.New("invalid embedding URL")

	// ErrInvalidIndexName indicates the Weaviate collection name is invalid.
	ErrInvalidIndexName = errors.New("invalid index name")

	// ErrInvalidPollInterval indicates the readiness poll interval is invalid.
	ErrInvalidPollInterval = errors.New("invalid poll interval")

	// ErrInvalidReadyTimeout indicates the readiness timeout is invalid.
	ErrInvalidReadyTimeout = errors.New("invalid ready timeout")

	// ErrInvalidComposeFile indicates the compose file path is empty.
	ErrInvalidComposeFile = errors.New("invalid compose file")
)

const (
	// DefaultIndexName is the Weaviate collection holding the knowledge base.
	DefaultIndexName = "ChatbotKnowledge"

	// DefaultEmbeddingModel matches the model served by the bundled vLLM
	// container; see docker-compose.yml.
	DefaultEmbeddingModel = "bge-small-en-v1.5"
)

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (API keys, tokens), update MarshalJSON.
type Config struct {
	// Chat completion configuration (OpenAI-compatible API)
	ModelName     string  `mapstructure:"model_name" json:"model_name"`
	Temperature   float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens" json:"max_tokens"`
	APIKey        string  `mapstructure:"api_key" json:"api_key"` // SENSITIVE: masked in MarshalJSON
	OpenAIBaseURL string  `mapstructure:"openai_base_url" json:"openai_base_url"`

	// Embedding service configuration (OpenAI-compatible /v1/embeddings)
	EmbeddingURL    string `mapstructure:"embedding_url" json:"embedding_url"`
	EmbeddingModel  string `mapstructure:"embedding_model" json:"embedding_model"`
	EmbeddingAPIKey string `mapstructure:"embedding_api_key" json:"embedding_api_key"` // SENSITIVE: masked in MarshalJSON
	EmbedRateLimit  int    `mapstructure:"embed_rate_limit" json:"embed_rate_limit"`   // embedding requests per second during bulk indexing

	// Weaviate configuration
	WeaviateURL string `mapstructure:"weaviate_url" json:"weaviate_url"`
	IndexName   string `mapstructure:"index_name" json:"index_name"`
	TopK        int    `mapstructure:"top_k" json:"top_k"`

	// Readiness gate configuration
	PollInterval time.Duration `mapstructure:"poll_interval" json:"poll_interval"`
	ReadyTimeout time.Duration `mapstructure:"ready_timeout" json:"ready_timeout"`

	// Orchestration configuration
	ComposeFile  string   `mapstructure:"compose_file" json:"compose_file"`
	DataDir      string   `mapstructure:"data_dir" json:"data_dir"`
	Requirements string   `mapstructure:"requirements" json:"requirements"`
	UICommand    []string `mapstructure:"ui_command" json:"ui_command"`

	// Observability configuration (see observability.go)
	Datadog DatadogConfig `mapstructure:"datadog" json:"datadog"`
}

// Dir returns the ragstack configuration directory (~/.ragstack),
// creating it if necessary.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".ragstack")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return configDir, nil
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	configDir, err := Dir()
	if err != nil {
		return nil, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is not an error, defaults apply
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Fail fast on bad values
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
// Defaults match docker-compose.yml so `ragstack quick-start` works unchanged.
func setDefaults() {
	// Chat defaults (original demo targets gpt-4o-mini at low temperature)
	viper.SetDefault("model_name", "gpt-4o-mini")
	viper.SetDefault("temperature", 0.1)
	viper.SetDefault("max_tokens", 2048)

	// Embedding service defaults (vLLM container)
	viper.SetDefault("embedding_url", "http://localhost:8000/v1")
	viper.SetDefault("embedding_model", DefaultEmbeddingModel)
	viper.SetDefault("embedding_api_key", "dummy-key")
	viper.SetDefault("embed_rate_limit", 4)

	// Weaviate defaults
	viper.SetDefault("weaviate_url", "http://localhost:8080")
	viper.SetDefault("index_name", DefaultIndexName)
	viper.SetDefault("top_k", 3)

	// Readiness gate defaults
	viper.SetDefault("poll_interval", "2s")
	viper.SetDefault("ready_timeout", "2m")

	// Orchestration defaults
	viper.SetDefault("compose_file", "docker-compose.yml")
	viper.SetDefault("data_dir", "data")
	viper.SetDefault("requirements", "requirements.txt")
	viper.SetDefault("ui_command", []string{"streamlit", "run", "streamlit_app.py"})

	// Datadog defaults
	viper.SetDefault("datadog.agent_host", "localhost:4318")
	viper.SetDefault("datadog.environment", "dev")
	viper.SetDefault("datadog.service_name", "ragstack")
}

// bindEnvVariables binds environment variables explicitly.
// OPENAI_API_KEY and BASE_URL keep their names from the original demo's
// .env file; everything else is RAGSTACK_-prefixed.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("api_key", "OPENAI_API_KEY")
	mustBind("openai_base_url", "BASE_URL")

	mustBind("model_name", "RAGSTACK_MODEL_NAME")
	mustBind("weaviate_url", "RAGSTACK_WEAVIATE_URL")
	mustBind("embedding_url", "RAGSTACK_EMBEDDING_URL")
	mustBind("embedding_api_key", "RAGSTACK_EMBEDDING_API_KEY")
	mustBind("index_name", "RAGSTACK_INDEX_NAME")
	mustBind("compose_file", "RAGSTACK_COMPOSE_FILE")
	mustBind("data_dir", "RAGSTACK_DATA_DIR")

	// Datadog API key (optional, for observability)
	mustBind("datadog.api_key", "DD_API_KEY")
}

// WeaviateReadyURL returns the Weaviate readiness endpoint.
// Weaviate reports ready at /v1/.well-known/ready once it can serve requests.
func (c *Config) WeaviateReadyURL() string {
	return c.WeaviateURL + "/v1/.well-known/ready"
}

// EmbeddingHealthURL returns the embedding service health endpoint.
// vLLM serves /health at the server root, not under /v1.
func (c *Config) EmbeddingHealthURL() string {
	u, err := url.Parse(c.EmbeddingURL)
	if err != nil {
		return c.EmbeddingURL + "/health"
	}
	u.Path = "/health"
	u.RawQuery = ""
	return u.String()
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks avoid accidental substring matches against real secrets.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of 8 chars or
// fewer are fully masked; longer ones keep the first and last 2 characters
// for debug utility. This defends against accidental logging, nothing more;
// if logs leak, rotate the key.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
//
// Sensitive fields masked:
//   - APIKey
//   - EmbeddingAPIKey
//   - Datadog.APIKey (via DatadogConfig.MarshalJSON)
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.APIKey = maskSecret(a.APIKey)
	a.EmbeddingAPIKey = maskSecret(a.EmbeddingAPIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
