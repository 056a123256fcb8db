package ollama

import (
	"bufio"
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

const providerName = "ollama"

type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

// Ensure OllamaProvider implements LLMProvider
var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	return &OllamaProvider{
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		ModelName: modelName,
		Client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 120 * time.Second,
			},
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

func (o *OllamaProvider) send(ctx context.Context, history []llm.Message, stream bool, opts ...llm.Option) (*http.Response, error) {
	options := llm.ApplyOptions(o.ModelName, opts...)

	ollamaMessages := make([]ollamaMessage, len(history))
	for i, msg := range history {
		ollamaMessages[i] = ollamaMessage{Role: llm.NormalizeRole(msg.Role), Content: msg.Content}
	}

	reqPayload := ollamaChatRequest{
		Model:    options.Model,
		Messages: ollamaMessages,
		Stream:   stream,
		Options: &ollamaOptions{
			Temperature: options.Temperature,
			NumPredict:  options.MaxTokens,
		},
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/api/chat", bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
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

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	resp, err := o.send(ctx, history, false, opts...)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var ollamaResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", llm.NewProviderError(providerName, llm.KindBadResponse, err)
	}
	return ollamaResp.Message.Content, nil
}

func (o *OllamaProvider) StreamChat(ctx context.Context, history []llm.Message, opts ...llm.Option) (llm.Stream, error) {
	resp, err := o.send(ctx, history, true, opts...)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &ndjsonStream{ctx: ctx, body: resp.Body, scanner: scanner}, nil
}

// ndjsonStream reads one JSON object per line until a chunk with done=true.
type ndjsonStream struct {
	ctx     context.Context
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
	closed  bool
}

func (s *ndjsonStream) Recv() (string, error) {
	if s.closed {
		return "", llm.ErrStreamClosed
	}
	if s.done {
		return "", io.EOF
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk ollamaChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return "", llm.NewProviderError(providerName, llm.KindBadResponse, err)
		}
		if chunk.Error != "" {
			return "", llm.NewProviderError(providerName, llm.KindInterrupted, fmt.Errorf("%s", chunk.Error))
		}
		if chunk.Done {
			s.done = true
			if chunk.Message.Content != "" {
				return chunk.Message.Content, nil
			}
			return "", io.EOF
		}
		if chunk.Message.Content != "" {
			return chunk.Message.Content, nil
		}
	}

	if err := s.scanner.Err(); err != nil {
		return "", llm.ReadError(s.ctx, providerName, err)
	}
	return "", llm.ReadError(s.ctx, providerName, io.ErrUnexpectedEOF)
}

func (s *ndjsonStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
