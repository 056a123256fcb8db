package factory

import (
	"testing"

	"mistral-thing-be/internal/config"
	"mistral-thing-be/pkg/llm/mistral"
	"mistral-thing-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider(config.AIConfig{LLMProvider: "mistral", MistralAPIKey: "k", MistralBaseURL: "https://api.mistral.ai", DefaultModel: "mistral-small-latest"})
	require.NoError(t, err)
	assert.IsType(t, &mistral.MistralProvider{}, p)

	p, err = NewLLMProvider(config.AIConfig{LLMProvider: "ollama"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", p.(*ollama.OllamaProvider).BaseURL)

	_, err = NewLLMProvider(config.AIConfig{LLMProvider: "mistral"})
	assert.Error(t, err)

	_, err = NewLLMProvider(config.AIConfig{LLMProvider: "gpt"})
	assert.Error(t, err)
}
