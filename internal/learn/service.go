package learn

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dwold113/The-AI-Engineer-Challenge/internal/ai"
	"github.com/dwold113/The-AI-Engineer-Challenge/internal/apperr"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	MaxTopicLen = 200

	MinSteps = 3
	MaxSteps = 10

	DefaultResources = 5
	MinResources     = 1
	MaxResources     = 10
)

const (
	msgEmptyTopic     = "Please enter a topic you want to learn."
	msgTopicTooLong   = "Topic is too long. Please keep it under 200 characters."
	msgNegativeSteps  = "Number of steps must be a positive number."
	msgNegativeSource = "Number of resources must be a positive number."
)

// Service runs the learning-plan pipeline: analyze the request, then build
// the plan and its resources.
type Service struct {
	Provider ai.Provider
	Model    string
	// Optional; nil disables the plan log.
	Exporter *Exporter
}

func NewService(p ai.Provider, model string, exp *Exporter) *Service {
	return &Service{Provider: p, Model: model, Exporter: exp}
}

// Learn turns a free-form request ("spanish, give me 4 steps") into a plan.
// Validation failures are *apperr.Error values with status 400; generation
// problems are absorbed by fallbacks.
func (s *Service) Learn(ctx context.Context, raw string) (*Plan, error) {
	topic := strings.TrimSpace(raw)
	if topic == "" {
		return nil, apperr.BadRequest(msgEmptyTopic)
	}
	if utf8.RuneCountInString(topic) > MaxTopicLen {
		return nil, apperr.BadRequest(msgTopicTooLong)
	}

	a := s.Analyze(ctx, topic)
	if !a.Valid {
		msg := a.Message
		if msg == "" {
			msg = msgNotLearnable
		}
		log.Info().Str("topic", topic).Str("reason", msg).Msg("topic rejected")
		return nil, apperr.BadRequest(msg)
	}

	var notes []string
	if a.Message != "" {
		notes = append(notes, a.Message)
	}
	steps := 0
	if a.NumSteps != nil {
		if *a.NumSteps < 0 {
			return nil, apperr.BadRequest(msgNegativeSteps)
		}
		var note string
		steps, note = clamp(*a.NumSteps, MinSteps, MaxSteps, "steps")
		if note != "" {
			notes = append(notes, note)
		}
	}
	resources := DefaultResources
	if a.NumResources != nil {
		if *a.NumResources < 0 {
			return nil, apperr.BadRequest(msgNegativeSource)
		}
		var note string
		resources, note = clamp(*a.NumResources, MinResources, MaxResources, "resources")
		if note != "" {
			notes = append(notes, note)
		}
	}

	plan := &Plan{
		ID:        uuid.NewString(),
		Topic:     a.CleanTopic,
		Message:   strings.Join(notes, " "),
		CreatedAt: time.Now().UTC(),
	}

	// the two calls are independent; each falls back on its own
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		plan.Steps = s.GeneratePlan(gctx, a.CleanTopic, steps)
		return nil
	})
	g.Go(func() error {
		plan.Resources = s.GenerateResources(gctx, a.CleanTopic, resources)
		return nil
	})
	_ = g.Wait()

	if s.Exporter != nil {
		if err := s.Exporter.Append(plan); err != nil {
			log.Error().Err(err).Str("plan", plan.ID).Msg("failed to export plan")
		}
	}
	log.Info().Str("plan", plan.ID).Str("topic", plan.Topic).Int("steps", len(plan.Steps)).Int("resources", len(plan.Resources)).Msg("plan created")
	return plan, nil
}

// Expand validates an expand-step request and elaborates the step.
func (s *Service) Expand(ctx context.Context, topic, title, description string) (ExpandedStep, error) {
	topic, title = strings.TrimSpace(topic), strings.TrimSpace(title)
	if topic == "" || title == "" {
		return ExpandedStep{}, apperr.BadRequest("Both topic and step_title are required.")
	}
	return s.ExpandStep(ctx, topic, title, strings.TrimSpace(description)), nil
}

func clamp(n, lo, hi int, unit string) (int, string) {
	switch {
	case n < lo:
		return lo, fmt.Sprintf("You asked for %d %s; the plan has been adjusted to %d %s.", n, unit, lo, unit)
	case n > hi:
		return hi, fmt.Sprintf("You asked for %d %s; the plan has been adjusted to %d %s.", n, unit, hi, unit)
	}
	return n, ""
}
