package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mistral-thing-be/pkg/llm"
)

const providerName = "mistral"

// MistralProvider talks to the OpenAI-compatible chat completions API.
type MistralProvider struct {
	BaseURL   string
	APIKey    string
	ModelName string
	Client    *http.Client
}

var _ llm.LLMProvider = &MistralProvider{}

func NewMistralProvider(baseURL, apiKey, modelName string) *MistralProvider {
	return &MistralProvider{
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		APIKey:    apiKey,
		ModelName: modelName,
		// No overall timeout: streams are bounded by the caller's context and
		// the idle timeout instead.
		Client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 60 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

func (p *MistralProvider) buildRequest(ctx context.Context, history []llm.Message, stream bool, opts ...llm.Option) (*http.Request, error) {
	options := llm.ApplyOptions(p.ModelName, opts...)

	messages := make([]chatMessage, len(history))
	for i, msg := range history {
		messages[i] = chatMessage{Role: llm.NormalizeRole(msg.Role), Content: msg.Content}
	}

	payload, err := json.Marshal(chatRequest{
		Model:       options.Model,
		Messages:    messages,
		Stream:      stream,
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	return req, nil
}

func (p *MistralProvider) do(req *http.Request) (*http.Response, error) {
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, llm.NewProviderError(providerName, llm.KindUnreachable, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, llm.StatusError(providerName, resp.StatusCode, string(body))
	}
	return resp, nil
}

func (p *MistralProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	req, err := p.buildRequest(ctx, history, false, opts...)
	if err != nil {
		return "", err
	}

	resp, err := p.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", llm.NewProviderError(providerName, llm.KindBadResponse, err)
	}
	if len(parsed.Choices) == 0 {
		return "", llm.NewProviderError(providerName, llm.KindBadResponse, fmt.Errorf("response has no choices"))
	}
	return parsed.Choices[0].Message.Content, nil
}

func (p *MistralProvider) StreamChat(ctx context.Context, history []llm.Message, opts ...llm.Option) (llm.Stream, error) {
	req, err := p.buildRequest(ctx, history, true, opts...)
	if err != nil {
		return nil, err
	}

	resp, err := p.do(req)
	if err != nil {
		return nil, err
	}
	return newSSEStream(ctx, resp.Body), nil
}
