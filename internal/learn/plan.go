package learn

import (
	"context"
	"fmt"
	"strings"

	"github.com/dwold113/The-AI-Engineer-Challenge/internal/ai"
	"github.com/dwold113/The-AI-Engineer-Challenge/internal/llmjson"
	"github.com/rs/zerolog/log"
)

const planSystemPrompt = "Expert educator who creates practical, actionable learning plans."

const planPrompt = `Learning topic: %s

Generate a structured learning plan: %s

Each step should be practical and actionable. Focus on what the learner should actually DO.

Respond in JSON format:
{
  "plan": [{"title": "Step 1: ...", "description": "..."}, ...]
}

JSON only:`

// GeneratePlan asks the model for a plan. steps <= 0 lets the model choose
// between 5 and 7 steps, capped at MaxSteps; otherwise the result is cut to
// exactly that many.
// It never fails: any upstream or parse problem yields FallbackPlan.
func (s *Service) GeneratePlan(ctx context.Context, topic string, steps int) []Step {
	instruction := "Provide a practical, actionable plan with 5-7 steps."
	if steps > 0 {
		instruction = fmt.Sprintf("Provide exactly %d steps. Make sure the plan is comprehensive but fits within %d steps.", steps, steps)
	}
	out, err := ai.CompleteWithSystem(ctx, s.Provider, s.Model, planSystemPrompt, fmt.Sprintf(planPrompt, topic, instruction),
		ai.WithMaxTokens(planTokens(steps)), ai.WithTemperature(0.7))
	if err != nil {
		log.Warn().Err(err).Str("op", "plan").Str("topic", topic).Msg("plan generation failed, using fallback")
		return FallbackPlan(topic)
	}
	var r struct {
		Plan []Step `json:"plan"`
	}
	if err := llmjson.Decode(out, &r); err != nil {
		log.Warn().Err(err).Str("op", "plan").Str("topic", topic).Msg("unparseable plan, using fallback")
		return FallbackPlan(topic)
	}

	plan := make([]Step, 0, len(r.Plan))
	for _, st := range r.Plan {
		st.Title = strings.TrimSpace(st.Title)
		st.Description = strings.TrimSpace(st.Description)
		if st.Title == "" || st.Description == "" {
			continue
		}
		plan = append(plan, st)
	}
	if len(plan) == 0 {
		return FallbackPlan(topic)
	}
	limit := steps
	if limit <= 0 {
		limit = MaxSteps
	}
	if len(plan) > limit {
		plan = plan[:limit]
	}
	return plan
}

// 600 tokens covers the default 5-7 steps; longer requested plans get more room.
func planTokens(steps int) int {
	if steps <= 7 {
		return 600
	}
	return steps * 90
}

func FallbackPlan(topic string) []Step {
	return []Step{
		{Title: fmt.Sprintf("Step 1: Research %s", topic), Description: fmt.Sprintf("Start by researching the basics of %s online.", topic)},
		{Title: "Step 2: Practice", Description: fmt.Sprintf("Try applying what you've learned about %s through hands-on practice.", topic)},
		{Title: "Step 3: Build Projects", Description: fmt.Sprintf("Create projects to solidify your understanding of %s.", topic)},
	}
}
