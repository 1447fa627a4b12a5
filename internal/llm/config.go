package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "openai", "anthropic", "gemini", "openrouter", "mock"
	Provider string `yaml:"provider"`

	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Retry      RetryConfig      `yaml:"retry"`

	// MaxTokens caps the length of a single mentor reply.
	MaxTokens int `yaml:"max_tokens"`

	// Timeout is the maximum duration for a single LLM request
	// (including retries). Default: 60s.
	Timeout time.Duration `yaml:"timeout"`
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`    // Default: "gpt-4o-mini"
	BaseURL string `yaml:"base_url"` // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`    // Default: "openai/gpt-4o-mini"
	BaseURL string `yaml:"base_url"` // Default: "https://openrouter.ai/api/v1"

	// SiteURL and AppName attribute requests to the mentor on OpenRouter
	// (HTTP-Referer and X-Title headers). Empty values are not sent.
	SiteURL string `yaml:"site_url"`
	AppName string `yaml:"app_name"`
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "openai",
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model:   "openai/gpt-4o-mini",
			AppName: "aimentor",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		MaxTokens: 2048,
		Timeout:   60 * time.Second,
	}
}

// ApplyEnv overrides fields of cfg from AIMENTOR_* environment variables.
// Unset variables leave the existing value alone.
func (c *Config) ApplyEnv() {
	setString(&c.Provider, "AIMENTOR_LLM_PROVIDER")

	setString(&c.Anthropic.APIKey, "AIMENTOR_ANTHROPIC_API_KEY")
	setString(&c.Anthropic.Model, "AIMENTOR_ANTHROPIC_MODEL")

	setString(&c.OpenAI.APIKey, "AIMENTOR_OPENAI_API_KEY")
	setString(&c.OpenAI.Model, "AIMENTOR_OPENAI_MODEL")
	setString(&c.OpenAI.BaseURL, "AIMENTOR_OPENAI_BASE_URL")

	setString(&c.Gemini.APIKey, "AIMENTOR_GEMINI_API_KEY")
	setString(&c.Gemini.Model, "AIMENTOR_GEMINI_MODEL")

	setString(&c.OpenRouter.APIKey, "AIMENTOR_OPENROUTER_API_KEY")
	setString(&c.OpenRouter.Model, "AIMENTOR_OPENROUTER_MODEL")
	setString(&c.OpenRouter.SiteURL, "AIMENTOR_OPENROUTER_SITE_URL")

	if v := os.Getenv("AIMENTOR_LLM_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxTokens = n
		}
	}
	if v := os.Getenv("AIMENTOR_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return cfg
}

// DiscoverConfig probes the conventional vendor API key variables
// (OpenAI, then Gemini, Anthropic, OpenRouter) and returns a Config for
// the first provider whose key is found. Returns (Config{}, false) if none
// is set.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	for _, name := range []string{"OPENAI_API_KEY", "OPEN_AI_API_KEY"} {
		if k := os.Getenv(name); k != "" {
			cfg.Provider = "openai"
			cfg.OpenAI.APIKey = k
			return cfg, true
		}
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = "openrouter"
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("AIMENTOR_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("AIMENTOR_OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("AIMENTOR_GEMINI_API_KEY is required for the gemini provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("AIMENTOR_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("llm retry.max_attempts must be at least 1")
	}
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
