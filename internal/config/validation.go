package config

import (
	"fmt"
	"net/url"
	"unicode"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
//
// The OpenAI API key is deliberately NOT checked here: only the chat path
// needs it, and service orchestration (start, status, clean) must work
// without one. Commands that talk to the completion API check
// RequireAPIKey() themselves.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// Chat configuration
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}
	if c.MaxTokens < 1 || c.MaxTokens > 128000 {
		return fmt.Errorf("%w: must be between 1 and 128,000, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	// Retrieval configuration
	if c.TopK < 1 || c.TopK > 10 {
		return fmt.Errorf("%w: must be between 1 and 10, got %d", ErrInvalidTopK, c.TopK)
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: embedding_model cannot be empty", ErrInvalidEmbeddingModel)
	}

	// Service URLs
	if err := validateHTTPURL(c.WeaviateURL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWeaviateURL, err)
	}
	if err := validateHTTPURL(c.EmbeddingURL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEmbeddingURL, err)
	}

	// Weaviate class names must begin with an uppercase letter (GraphQL
	// type naming); catch it here rather than as an obscure server error.
	if c.IndexName == "" {
		return fmt.Errorf("%w: index_name cannot be empty", ErrInvalidIndexName)
	}
	if r := []rune(c.IndexName)[0]; !unicode.IsUpper(r) {
		return fmt.Errorf("%w: must start with an uppercase letter, got %q", ErrInvalidIndexName, c.IndexName)
	}

	// Readiness gate
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: must be positive, got %s", ErrInvalidPollInterval, c.PollInterval)
	}
	if c.ReadyTimeout < 0 {
		return fmt.Errorf("%w: must not be negative, got %s", ErrInvalidReadyTimeout, c.ReadyTimeout)
	}
	if c.ReadyTimeout > 0 && c.ReadyTimeout < c.PollInterval {
		return fmt.Errorf("%w: must be at least poll_interval (%s), got %s",
			ErrInvalidReadyTimeout, c.PollInterval, c.ReadyTimeout)
	}

	// Orchestration
	if c.ComposeFile == "" {
		return fmt.Errorf("%w: compose_file cannot be empty", ErrInvalidComposeFile)
	}

	return nil
}

// RequireAPIKey verifies the OpenAI API key is present.
// Called by commands that reach the chat completion API.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY environment variable is required", ErrMissingAPIKey)
	}
	return nil
}

// validateHTTPURL checks that s is an absolute http(s) URL with a host.
func validateHTTPURL(s string) error {
	if s == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", s, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", s)
	}
	return nil
}
