package mistral

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"mistral-thing-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, stream llm.Stream) ([]string, error) {
	t.Helper()
	var deltas []string
	for {
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return deltas, nil
		}
		if err != nil {
			return deltas, err
		}
		deltas = append(deltas, delta)
	}
}

func TestStreamChat_ParsesSSE(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\",\"content\":\"\"}}]}\n\n")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\n")
		fmt.Fprint(w, "data: not json\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\" there\"},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := NewMistralProvider(srv.URL+"/", "secret", "mistral-small-latest")
	stream, err := p.StreamChat(context.Background(), []llm.Message{
		{Role: "system", Content: "be nice"},
		{Role: "model", Content: "earlier"},
		{Role: "user", Content: "Hello"},
	}, llm.WithModel("magistral-small-latest"))
	require.NoError(t, err)
	defer stream.Close()

	deltas, err := drain(t, stream)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hi", " there"}, deltas)

	assert.True(t, got.Stream)
	assert.Equal(t, "magistral-small-latest", got.Model)
	assert.Equal(t, "assistant", got.Messages[1].Role)
}

func TestStreamChat_TruncatedStreamIsInterrupted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Par\"}}]}\n\n")
	}))
	defer srv.Close()

	stream, err := NewMistralProvider(srv.URL, "k", "m").StreamChat(context.Background(), nil)
	require.NoError(t, err)

	deltas, err := drain(t, stream)
	assert.Equal(t, []string{"Par"}, deltas)
	assert.True(t, llm.IsKind(err, llm.KindInterrupted))
}

func TestStreamChat_ErrorEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"error\":{\"message\":\"overloaded\"}}\n\n")
	}))
	defer srv.Close()

	stream, err := NewMistralProvider(srv.URL, "k", "m").StreamChat(context.Background(), nil)
	require.NoError(t, err)
	_, err = stream.Recv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   llm.ErrorKind
	}{
		{"unknown model", http.StatusBadRequest, llm.KindInvalidRequest},
		{"bad key", http.StatusUnauthorized, llm.KindInvalidRequest},
		{"provider down", http.StatusServiceUnavailable, llm.KindUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"message":"nope"}`, tt.status)
			}))
			defer srv.Close()

			p := NewMistralProvider(srv.URL, "k", "m")
			_, err := p.StreamChat(context.Background(), nil)
			assert.True(t, llm.IsKind(err, tt.kind))

			_, err = p.Chat(context.Background(), nil)
			var pe *llm.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.status, pe.StatusCode)
		})
	}
}

func TestChat_ReturnsFirstChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "Hello", req.Messages[0].Content)
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Greeting"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	out, err := NewMistralProvider(srv.URL, "k", "m").Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "Hello"}})
	require.NoError(t, err)
	assert.Equal(t, "Greeting", out)
}
