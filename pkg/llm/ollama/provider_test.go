package ollama

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

func TestStreamChat_NDJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		assert.Equal(t, "llama3", req.Model)

		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Hel"},"done":false}`)
		fmt.Fprintln(w, ``)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"lo"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer srv.Close()

	stream, err := NewOllamaProvider(srv.URL, "llama3").StreamChat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	defer stream.Close()

	var out string
	for {
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		out += delta
	}
	assert.Equal(t, "Hello", out)
}

func TestStreamChat_MissingDoneIsInterrupted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Hel"},"done":false}`)
	}))
	defer srv.Close()

	stream, err := NewOllamaProvider(srv.URL, "llama3").StreamChat(context.Background(), nil)
	require.NoError(t, err)

	delta, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "Hel", delta)

	_, err = stream.Recv()
	assert.True(t, llm.IsKind(err, llm.KindInterrupted))
}

func TestChat_UnknownModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'nope' not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "nope").Chat(context.Background(), nil)
	assert.True(t, llm.IsKind(err, llm.KindInvalidRequest))
}
