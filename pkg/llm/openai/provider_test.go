package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p := NewOpenAIProvider("configured-key", "gpt-3.5-turbo")
	p.BaseURL = server.URL
	return p
}

func TestChatSendsPayloadAndParsesReply(t *testing.T) {
	var got openaiChatRequest
	var authorization string

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hi!"}}]}`))
	})

	reply, err := p.Chat(context.Background(),
		[]llm.Message{
			{Role: "system", Content: "be nice"},
			{Role: "user", Content: "hello"},
		},
		llm.WithTemperature(0.7),
		llm.WithMaxTokens(500),
	)

	require.NoError(t, err)
	assert.Equal(t, "Hi!", reply)
	assert.Equal(t, "Bearer configured-key", authorization)
	assert.Equal(t, "gpt-3.5-turbo", got.Model)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, 500, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestChatPerRequestKeyOverridesConfigured(t *testing.T) {
	var auth string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	_, err := p.Chat(context.Background(),
		[]llm.Message{{Role: "user", Content: "hi"}},
		llm.WithAPIKey("header-key"),
	)
	require.NoError(t, err)
	assert.Equal(t, "Bearer header-key", auth)
}

func TestChatMissingKey(t *testing.T) {
	p := NewOpenAIProvider("", "gpt-3.5-turbo")

	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)
}

func TestChatUpstreamError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	})

	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestChatModelRoleMappedToAssistant(t *testing.T) {
	var got openaiChatRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	_, err := p.Chat(context.Background(), []llm.Message{{Role: "model", Content: "earlier reply"}})
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "assistant", got.Messages[0].Role)
}

func TestChatEmptyChoices(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	assert.Error(t, err)
}
