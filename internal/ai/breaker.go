package ai

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// Breaker wraps a Provider in a circuit breaker. While open, Chat fails
// fast with ErrUnavailable.
type Breaker struct {
	name  string
	inner Provider
	cb    *gobreaker.CircuitBreaker
}

type BreakerSettings struct {
	// Consecutive failures before the breaker opens.
	MaxFailures uint32
	// How long the breaker stays open before letting a probe through.
	OpenTimeout time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{MaxFailures: 5, OpenTimeout: 30 * time.Second}
}

func NewBreaker(name string, inner Provider, s BreakerSettings) *Breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			// caller cancellations say nothing about upstream health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			breakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	return &Breaker{name: name, inner: inner, cb: cb}
}

func (b *Breaker) Chat(ctx context.Context, req ChatRequest) (string, error) {
	start := time.Now()
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Chat(ctx, req)
	})
	observe(b.name, "chat", start, err)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrUnavailable
		}
		return "", err
	}
	return out.(string), nil
}

// State exposes the breaker state for health reporting.
func (b *Breaker) State() string { return b.cb.State().String() }
