package llm

import "context"

// Provider answers chat completion requests.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// Options selects and configures a provider.
type Options struct {
	Provider string
	Model    string
	// APIKey overrides the provider's API key environment variable.
	APIKey string
	// BaseURL points the provider at a compatible endpoint, such as a local
	// Ollama server or a test double.
	BaseURL string
	// RequestsPerMinute wraps the provider in a rate limiter when positive.
	RequestsPerMinute int
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// CompletionRequest is one question put to a provider. Zero values select
// the provider's default model and token limit.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// CompletionResponse carries the answer text and the token counts the cost
// estimate is computed from.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}
