package llm

import (
	"context"
)

// Embedder turns claim texts into vectors for the claim ledger
type Embedder interface {
	// Name returns the provider name
	Name() string

	// Embed returns one vector per input text, in input order
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector length this embedder produces (0 if decided by the model)
	Dimension() int
}

// Config holds embedding provider configuration
type Config struct {
	// Provider name: "placeholder", "openai", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// Dimension requested from the provider; must match the ledger collection
	Dimension int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "placeholder",
		Timeout:   30,
		Dimension: 1536,
	}
}
