package llm

import (
	"fmt"
	"strings"
)

// NewClient creates a new reasoning-service client based on configuration.
// An empty provider returns (nil, nil): the pipeline cannot run without one,
// but commands that never call the service should not require a key.
func NewClient(config Config) (Client, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIClient(config)

	case "ollama":
		return NewOllamaClient(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}
