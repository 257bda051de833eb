package llm

import (
	"fmt"
	"os"
)

// NewProvider creates the provider named by opts.Provider.
// Supported provider types: "openai", "google", "ollama".
func NewProvider(opts Options) (Provider, error) {
	var p Provider
	switch opts.Provider {
	case "openai":
		apiKey := firstNonEmpty(opts.APIKey, os.Getenv("OPENAI_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		p = NewOpenAIProvider(apiKey, opts.Model, opts.BaseURL)

	case "google":
		apiKey := firstNonEmpty(opts.APIKey, os.Getenv("GOOGLE_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is not set")
		}
		p = NewGoogleProvider(apiKey, opts.Model, opts.BaseURL)

	case "ollama":
		// Ollama serves the OpenAI chat API under /v1.
		host := firstNonEmpty(opts.BaseURL, os.Getenv("OLLAMA_HOST"), "http://localhost:11434")
		o := NewOpenAIProvider("ollama", opts.Model, host+"/v1")
		o.name = "ollama"
		p = o

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", opts.Provider)
	}

	if opts.RequestsPerMinute > 0 {
		p = NewRateLimitedProvider(p, opts.RequestsPerMinute)
	}
	return p, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
