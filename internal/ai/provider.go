package ai

import (
	"context"
	"errors"
)

var (
	ErrMissingAPIKey = errors.New("missing OPENAI_API_KEY")
	ErrNoChoices     = errors.New("no choices")
	ErrNoImage       = errors.New("no image returned")
	ErrUnavailable   = errors.New("provider temporarily unavailable")
)

const (
	RoleSystem    = "system"
	RoleDeveloper = "developer"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

type ChatRequest struct {
	Model    string
	Messages []Message
	// Zero means the provider default.
	MaxTokens   int
	Temperature *float32
}

// Provider completes chat conversations. Implementations return the first
// choice's content with surrounding whitespace trimmed.
type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

type ImageRequest struct {
	Model   string
	Prompt  string
	Size    string
	Quality string
	N       int
}

// Image holds whichever form the upstream returned: a hosted URL or
// base64-encoded bytes.
type Image struct {
	URL string
	B64 string
}

type ImageProvider interface {
	GenerateImage(ctx context.Context, req ImageRequest) (Image, error)
}

type Option func(*ChatRequest)

func WithMaxTokens(n int) Option {
	return func(r *ChatRequest) { r.MaxTokens = n }
}

func WithTemperature(t float32) Option {
	return func(r *ChatRequest) { r.Temperature = &t }
}

// CompleteWithSystem sends a system prompt followed by a single user prompt.
func CompleteWithSystem(ctx context.Context, p Provider, model, systemPrompt, prompt string, opts ...Option) (string, error) {
	req := ChatRequest{
		Model: model,
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: prompt},
		},
	}
	for _, o := range opts {
		o(&req)
	}
	return p.Chat(ctx, req)
}
