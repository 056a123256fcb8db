package llm

import (
	"context"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// ApplyOptions resolves options on top of the provider defaults.
func ApplyOptions(defaultModel string, opts ...Option) *Options {
	options := &Options{
		Temperature: 0.7,
		Model:       defaultModel,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// NormalizeRole maps legacy role names onto system/user/assistant.
func NormalizeRole(role string) string {
	if role == "model" {
		return RoleAssistant
	}
	return role
}

// Stream yields incremental text deltas. Recv returns io.EOF once the
// response is complete. A Stream is not restartable.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// StreamChat opens a streaming completion over the history.
	StreamChat(ctx context.Context, history []Message, options ...Option) (Stream, error)
}
