package mistral

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"mistral-thing-be/pkg/llm"
)

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// sseStream reads "data: {json}" events until "[DONE]".
type sseStream struct {
	ctx      context.Context
	body     io.ReadCloser
	scanner  *bufio.Scanner
	finished bool
	closed   bool
}

func newSSEStream(ctx context.Context, body io.ReadCloser) *sseStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &sseStream{ctx: ctx, body: body, scanner: scanner}
}

func (s *sseStream) Recv() (string, error) {
	if s.closed {
		return "", llm.ErrStreamClosed
	}

	for s.scanner.Scan() {
		line := s.scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

		if data == "[DONE]" {
			s.finished = true
			return "", io.EOF
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue // Skip malformed chunks
		}
		if chunk.Error != nil {
			return "", llm.NewProviderError(providerName, llm.KindInterrupted, fmt.Errorf("%s", chunk.Error.Message))
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			s.finished = true
		}
		if choice.Delta.Content != "" {
			return choice.Delta.Content, nil
		}
	}

	if err := s.scanner.Err(); err != nil {
		return "", llm.ReadError(s.ctx, providerName, err)
	}
	if !s.finished {
		return "", llm.ReadError(s.ctx, providerName, io.ErrUnexpectedEOF)
	}
	return "", io.EOF
}

func (s *sseStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
