package generator

import (
	"context"
	"fmt"
)

// LLMClient abstracts the text generation backend so it can be swapped or mocked.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings is the base configuration handed to concrete clients.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// NewClient picks an LLMClient implementation for the configured provider.
func NewClient(ctx context.Context, cfg LLMSettings) (LLMClient, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAILLMFromConfig(&cfg)
	case "deepseek":
		// DeepSeek exposes an OpenAI compatible endpoint, so base_url is mandatory.
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return NewOpenAILLMFromConfig(&cfg)
	case "gemini":
		return NewGeminiLLMFromConfig(ctx, &cfg)
	case "mock":
		return MockLLM{}, nil
	case "":
		return nil, fmt.Errorf("llm config missing; please set llm.provider/model/api_key")
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}
