package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dwold113/The-AI-Engineer-Challenge/internal/ai"
)

// Client talks to a local Ollama daemon. It only serves text; image
// generation always goes through OpenAI.
type Client struct {
	Host string
	http *http.Client
}

func New(host string) *Client {
	if host == "" {
		host = "http://localhost:11434"
	}
	return &Client{Host: strings.TrimRight(host, "/"), http: &http.Client{Timeout: 60 * time.Second}}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature *float32 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *chatOptions  `json:"options,omitempty"`
}

func (c *Client) Chat(ctx context.Context, req ai.ChatRequest) (string, error) {
	payload := chatRequest{Model: req.Model, Stream: false}
	for _, m := range req.Messages {
		role := m.Role
		// ollama has no developer role
		if role == ai.RoleDeveloper {
			role = ai.RoleSystem
		}
		payload.Messages = append(payload.Messages, chatMessage{Role: role, Content: m.Content})
	}
	if req.MaxTokens > 0 || req.Temperature != nil {
		payload.Options = &chatOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Host+"/api/chat", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	hreq.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(hreq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("ollama status %d", resp.StatusCode)
	}
	var out struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Message.Content), nil
}
