package learn

import (
	"context"
	"errors"
	"sync"

	"github.com/dwold113/The-AI-Engineer-Challenge/internal/ai"
)

type reply struct {
	text string
	err  error
}

// scriptedProvider answers by system prompt, so concurrent plan and resource
// calls get their own replies regardless of ordering.
type scriptedProvider struct {
	mu      sync.Mutex
	bySys   map[string]reply
	prompts map[string]string
	reqs    map[string]ai.ChatRequest
}

func newScripted() *scriptedProvider {
	return &scriptedProvider{bySys: map[string]reply{}, prompts: map[string]string{}, reqs: map[string]ai.ChatRequest{}}
}

func (p *scriptedProvider) on(system, text string) *scriptedProvider {
	p.bySys[system] = reply{text: text}
	return p
}

func (p *scriptedProvider) fail(system string) *scriptedProvider {
	p.bySys[system] = reply{err: errors.New("upstream unavailable")}
	return p
}

func (p *scriptedProvider) Chat(ctx context.Context, req ai.ChatRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sys := req.Messages[0].Content
	p.prompts[sys] = req.Messages[len(req.Messages)-1].Content
	p.reqs[sys] = req
	r, ok := p.bySys[sys]
	if !ok {
		return "", errors.New("unscripted call")
	}
	return r.text, r.err
}

func (p *scriptedProvider) promptFor(system string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prompts[system]
}
