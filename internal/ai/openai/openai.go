package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dwold113/The-AI-Engineer-Challenge/internal/ai"
	goopenai "github.com/sashabaranov/go-openai"
)

// Client adapts go-openai to the ai.Provider and ai.ImageProvider interfaces.
type Client struct {
	APIKey string
	inner  *goopenai.Client
}

// New builds a client. baseURL may be empty for the public API; otherwise it
// must include the version path (e.g. https://example.com/v1).
func New(apiKey, baseURL string) *Client {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	// image generation alone can take ~20s
	cfg.HTTPClient = &http.Client{Timeout: 90 * time.Second}
	return &Client{APIKey: apiKey, inner: goopenai.NewClientWithConfig(cfg)}
}

func (c *Client) Chat(ctx context.Context, req ai.ChatRequest) (string, error) {
	if c.APIKey == "" {
		return "", ai.ErrMissingAPIKey
	}
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	creq := goopenai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  msgs,
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature != nil {
		creq.Temperature = *req.Temperature
	}
	resp, err := c.inner.CreateChatCompletion(ctx, creq)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ai.ErrNoChoices
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) GenerateImage(ctx context.Context, req ai.ImageRequest) (ai.Image, error) {
	if c.APIKey == "" {
		return ai.Image{}, ai.ErrMissingAPIKey
	}
	n := req.N
	if n <= 0 {
		n = 1
	}
	resp, err := c.inner.CreateImage(ctx, goopenai.ImageRequest{
		Prompt:         req.Prompt,
		Model:          req.Model,
		N:              n,
		Size:           req.Size,
		Quality:        req.Quality,
		ResponseFormat: goopenai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return ai.Image{}, fmt.Errorf("openai image: %w", err)
	}
	if len(resp.Data) == 0 {
		return ai.Image{}, ai.ErrNoImage
	}
	return ai.Image{URL: resp.Data[0].URL, B64: resp.Data[0].B64JSON}, nil
}
