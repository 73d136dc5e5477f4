package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// setTestHome points HOME at a temp dir so Load never reads a developer's
// real ~/.ragstack/config.yaml, and resets the viper singleton.
func setTestHome(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Setenv("HOME", t.TempDir())

	// Make sure ambient env vars don't leak into assertions.
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("BASE_URL", "")
	t.Setenv("RAGSTACK_WEAVIATE_URL", "")
	t.Setenv("RAGSTACK_EMBEDDING_URL", "")
}

func TestLoadDefaults(t *testing.T) {
	setTestHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ModelName != "gpt-4o-mini" {
		t.Errorf("ModelName = %q, want gpt-4o-mini", cfg.ModelName)
	}
	if cfg.WeaviateURL != "http://localhost:8080" {
		t.Errorf("WeaviateURL = %q, want http://localhost:8080", cfg.WeaviateURL)
	}
	if cfg.EmbeddingURL != "http://localhost:8000/v1" {
		t.Errorf("EmbeddingURL = %q, want http://localhost:8000/v1", cfg.EmbeddingURL)
	}
	if cfg.IndexName != DefaultIndexName {
		t.Errorf("IndexName = %q, want %q", cfg.IndexName, DefaultIndexName)
	}
	if cfg.TopK != 3 {
		t.Errorf("TopK = %d, want 3", cfg.TopK)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %s, want 2s", cfg.PollInterval)
	}
	if cfg.ReadyTimeout != 2*time.Minute {
		t.Errorf("ReadyTimeout = %s, want 2m", cfg.ReadyTimeout)
	}
	if cfg.ComposeFile != "docker-compose.yml" {
		t.Errorf("ComposeFile = %q, want docker-compose.yml", cfg.ComposeFile)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	setTestHome(t)
	t.Setenv("RAGSTACK_WEAVIATE_URL", "http://weaviate.test:9090")
	t.Setenv("OPENAI_API_KEY", "sk-test-key")
	t.Setenv("BASE_URL", "http://llm.test:4000/v1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.WeaviateURL != "http://weaviate.test:9090" {
		t.Errorf("WeaviateURL = %q, want env override", cfg.WeaviateURL)
	}
	if cfg.APIKey != "sk-test-key" {
		t.Errorf("APIKey = %q, want sk-test-key", cfg.APIKey)
	}
	if cfg.OpenAIBaseURL != "http://llm.test:4000/v1" {
		t.Errorf("OpenAIBaseURL = %q, want BASE_URL value", cfg.OpenAIBaseURL)
	}
}

func TestWeaviateReadyURL(t *testing.T) {
	cfg := &Config{WeaviateURL: "http://localhost:8080"}
	want := "http://localhost:8080/v1/.well-known/ready"
	if got := cfg.WeaviateReadyURL(); got != want {
		t.Errorf("WeaviateReadyURL() = %q, want %q", got, want)
	}
}

func TestEmbeddingHealthURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"strips v1 path", "http://localhost:8000/v1", "http://localhost:8000/health"},
		{"bare host", "http://localhost:8000", "http://localhost:8000/health"},
		{"custom host", "https://embed.internal:9443/v1", "https://embed.internal:9443/health"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingURL: tt.url}
			if got := cfg.EmbeddingHealthURL(); got != tt.want {
				t.Errorf("EmbeddingHealthURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSecretMasking(t *testing.T) {
	cfg := Config{
		APIKey:          "sk-very-secret-api-key-123",
		EmbeddingAPIKey: "dummy-key",
		ModelName:       "gpt-4o-mini",
	}

	out := cfg.String()
	if strings.Contains(out, "sk-very-secret-api-key-123") {
		t.Errorf("String() leaked the API key: %s", out)
	}
	if strings.Contains(out, "dummy-key") {
		t.Errorf("String() leaked the embedding API key: %s", out)
	}
	if !strings.Contains(out, maskedValue) {
		t.Errorf("String() missing mask placeholder: %s", out)
	}
	// Non-sensitive fields stay readable.
	if !strings.Contains(out, "gpt-4o-mini") {
		t.Errorf("String() should contain model name: %s", out)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{"empty", "", ""},
		{"short fully masked", "abc", maskedValue},
		{"exactly eight", "12345678", maskedValue},
		{"long keeps edges", "sk-abcdefghijklmnop", "sk<" + maskedValue + ">op"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maskSecret(tt.secret); got != tt.want {
				t.Errorf("maskSecret(%q) = %q, want %q", tt.secret, got, tt.want)
			}
		})
	}
}
