package llm

import (
	"context"

	"github.com/Zavosh/ClearVote2.0/internal/model"
)

// Client defines the interface for reasoning-service providers.
//
// Every call requests a strictly-typed JSON reply; the raw text comes back
// unparsed because callers own the defensive coercion of each field. The
// service's declared shape is never trusted.
type Client interface {
	// Name returns the provider name
	Name() string

	// CompleteJSON sends a system instruction and user prompt and returns
	// the raw reply text, which the provider has asked to be JSON.
	CompleteJSON(ctx context.Context, req Request) (string, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Request contains the input for a single reasoning call.
type Request struct {
	// System is the system-level instruction
	System string

	// Prompt is the user-level prompt
	Prompt string

	// Model overrides the configured model (provider-specific)
	Model string

	// Temperature controls sampling; all pipeline calls run low (0.1-0.2)
	Temperature float32

	// MaxTokens limits the response length
	MaxTokens int
}

// Config holds reasoning-service provider configuration.
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Model:     "gpt-4o-mini",
		Timeout:   30,
		MaxTokens: 1500,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:   mc.Provider,
		Model:      mc.Model,
		APIKey:     mc.APIKey,
		BaseURL:    mc.BaseURL,
		Timeout:    mc.Timeout,
		MaxTokens:  mc.MaxTokens,
		HTTPProxy:  mc.HTTPProxy,
		HTTPSProxy: mc.HTTPSProxy,
		NoProxy:    mc.NoProxy,
	}
}
