// Package title names a thread after its first user message.
package title

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mistral-thing-be/internal/constant"
	"mistral-thing-be/internal/pkg/logger"
	"mistral-thing-be/internal/repository/contract"
	"mistral-thing-be/pkg/chat/prompt"
	"mistral-thing-be/pkg/llm"

	"github.com/google/uuid"
)

const requestTimeout = 30 * time.Second

type Store interface {
	UpdateThreadTitle(ctx context.Context, threadId uuid.UUID, title string) error
}

// Job is the payload of one title request.
type Job struct {
	ThreadId uuid.UUID `json:"thread_id"`
	Content  string    `json:"content"`
}

type Generator struct {
	provider llm.LLMProvider
	store    Store
	model    string
	logger   logger.ILogger

	onFallback func()
}

func NewGenerator(provider llm.LLMProvider, store Store, model string, log logger.ILogger) *Generator {
	return &Generator{provider: provider, store: store, model: model, logger: log}
}

// OnFallback registers fn to be called whenever the fallback title is used.
func (g *Generator) OnFallback(fn func()) {
	g.onFallback = fn
}

// Run asks the model for a title and stores it, falling back to the default
// title on any provider failure. It returns the title it tried to store.
// Nothing here is fatal to the conversation.
func (g *Generator) Run(ctx context.Context, job Job) string {
	title, err := g.complete(ctx, job.Content)
	if err != nil {
		g.logger.Warn("TitleGenerator", "Title generation failed, using fallback", map[string]interface{}{
			"thread_id": job.ThreadId,
			"error":     err.Error(),
		})
		title = constant.FallbackThreadTitle
		if g.onFallback != nil {
			g.onFallback()
		}
	}

	if err := g.store.UpdateThreadTitle(ctx, job.ThreadId, title); err != nil {
		if errors.Is(err, contract.ErrGone) {
			return title
		}
		g.logger.Error("TitleGenerator", "Failed to store title", map[string]interface{}{
			"thread_id": job.ThreadId,
			"error":     err,
		})
	}
	return title
}

func (g *Generator) complete(ctx context.Context, content string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	out, err := g.provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: prompt.TitlePrompt},
		{Role: llm.RoleUser, Content: content},
	}, llm.WithModel(g.model))
	if err != nil {
		return "", err
	}

	title := strings.TrimSpace(out)
	if title == "" {
		return "", fmt.Errorf("model returned an empty title")
	}
	return title, nil
}
