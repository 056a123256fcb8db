package factory

import (
	"fmt"

	"mistral-thing-be/internal/config"
	"mistral-thing-be/pkg/llm"
	"mistral-thing-be/pkg/llm/mistral"
	"mistral-thing-be/pkg/llm/ollama"
)

func NewLLMProvider(cfg config.AIConfig) (llm.LLMProvider, error) {
	switch cfg.LLMProvider {
	case "mistral", "":
		if cfg.MistralAPIKey == "" {
			return nil, fmt.Errorf("MISTRAL_API_KEY is required for the mistral provider")
		}
		return mistral.NewMistralProvider(cfg.MistralBaseURL, cfg.MistralAPIKey, cfg.DefaultModel), nil
	case "ollama":
		baseURL := cfg.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.DefaultModel), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}
