package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dwold113/The-AI-Engineer-Challenge/internal/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatMapsRolesAndOptions(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":" VALID \n"}}`))
	}))
	defer srv.Close()

	temp := float32(0.1)
	out, err := New(srv.URL+"/").Chat(context.Background(), ai.ChatRequest{
		Model: "llama3",
		Messages: []ai.Message{
			{Role: ai.RoleDeveloper, Content: "rules"},
			{Role: ai.RoleUser, Content: "hi"},
		},
		MaxTokens:   30,
		Temperature: &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, "VALID", out)

	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, ai.RoleSystem, got.Messages[0].Role)
	require.NotNil(t, got.Options)
	assert.Equal(t, 30, got.Options.NumPredict)
}

func TestChatNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Chat(context.Background(), ai.ChatRequest{Model: "llama3"})
	require.EqualError(t, err, "ollama status 502")
}

func TestNewDefaultsHost(t *testing.T) {
	assert.Equal(t, "http://localhost:11434", New("").Host)
}
