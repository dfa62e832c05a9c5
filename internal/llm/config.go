package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config holds all LLM provider configuration.
type Config struct {
	Provider string `toml:"provider"`

	Anthropic  AnthropicConfig  `toml:"anthropic"`
	OpenAI     OpenAIConfig     `toml:"openai"`
	Gemini     GeminiConfig     `toml:"gemini"`
	OpenRouter OpenRouterConfig `toml:"openrouter"`
	Retry      RetryConfig      `toml:"retry"`

	// Timeout bounds a single Generate call including retries.
	Timeout time.Duration `toml:"timeout"`

	// CaptureBodies stores full request and response text with each LLM
	// event. Off by default since prompts can be large.
	CaptureBodies bool `toml:"capture_bodies"`
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int           `toml:"max_attempts"`
	InitialWait time.Duration `toml:"initial_wait"`
	MaxWait     time.Duration `toml:"max_wait"`
	Multiplier  float64       `toml:"multiplier"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "openai/gpt-4o-mini"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 45 * time.Second,
	}
}

// ApplyEnv overlays CODEQUIZ_* environment variables onto cfg.
func (c *Config) ApplyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.Provider, "CODEQUIZ_LLM_PROVIDER")

	setString(&c.Anthropic.APIKey, "CODEQUIZ_ANTHROPIC_API_KEY")
	setString(&c.Anthropic.Model, "CODEQUIZ_ANTHROPIC_MODEL")
	setString(&c.Anthropic.BaseURL, "CODEQUIZ_ANTHROPIC_BASE_URL")

	setString(&c.OpenAI.APIKey, "CODEQUIZ_OPENAI_API_KEY")
	setString(&c.OpenAI.Model, "CODEQUIZ_OPENAI_MODEL")
	setString(&c.OpenAI.BaseURL, "CODEQUIZ_OPENAI_BASE_URL")

	setString(&c.Gemini.APIKey, "CODEQUIZ_GEMINI_API_KEY")
	setString(&c.Gemini.Model, "CODEQUIZ_GEMINI_MODEL")

	setString(&c.OpenRouter.APIKey, "CODEQUIZ_OPENROUTER_API_KEY")
	setString(&c.OpenRouter.Model, "CODEQUIZ_OPENROUTER_MODEL")
	setString(&c.OpenRouter.BaseURL, "CODEQUIZ_OPENROUTER_BASE_URL")

	if v := os.Getenv("CODEQUIZ_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
	if v := os.Getenv("CODEQUIZ_LLM_CAPTURE_BODIES"); v == "1" || v == "true" {
		c.CaptureBodies = true
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return cfg
}

// Discover fills in a provider from the standard vendor API key variables
// (Gemini, OpenAI, Anthropic, OpenRouter, in that order) when the
// configured provider has no key. It reports whether a usable provider
// was found.
func (c *Config) Discover() bool {
	if c.Validate() == nil {
		return true
	}

	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		c.Provider = ProviderGemini
		c.Gemini.APIKey = k
		return true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		c.Provider = ProviderOpenAI
		c.OpenAI.APIKey = k
		return true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		c.Provider = ProviderAnthropic
		c.Anthropic.APIKey = k
		return true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		c.Provider = ProviderOpenRouter
		c.OpenRouter.APIKey = k
		return true
	}
	return false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("CODEQUIZ_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("CODEQUIZ_OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("CODEQUIZ_GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderOpenRouter:
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("CODEQUIZ_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	return nil
}
