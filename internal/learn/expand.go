package learn

import (
	"context"
	"fmt"
	"strings"

	"github.com/dwold113/The-AI-Engineer-Challenge/internal/ai"
	"github.com/dwold113/The-AI-Engineer-Challenge/internal/llmjson"
	"github.com/rs/zerolog/log"
)

const expandSystemPrompt = "Expert educator who explains a single learning step in depth, concretely and practically."

const expandPrompt = `Learning topic: %s
Step: %s
Step description: %s

Expand this step for the learner. Respond in JSON format:
{
  "additionalContext": "why this step matters and how it fits the bigger picture",
  "practicalDetails": "concrete actions, tools and exercises",
  "importantConsiderations": "things to keep in mind",
  "realWorldExamples": "how this shows up in practice",
  "potentialChallenges": "common difficulties and how to overcome them"
}

JSON only:`

// ExpandStep elaborates one plan step. Fields the model leaves empty are
// filled from FallbackExpansion, so the result is always complete.
func (s *Service) ExpandStep(ctx context.Context, topic, title, description string) ExpandedStep {
	fb := FallbackExpansion(topic, title)
	out, err := ai.CompleteWithSystem(ctx, s.Provider, s.Model, expandSystemPrompt, fmt.Sprintf(expandPrompt, topic, title, description),
		ai.WithMaxTokens(700), ai.WithTemperature(0.6))
	if err != nil {
		log.Warn().Err(err).Str("op", "expand").Str("topic", topic).Msg("step expansion failed, using fallback")
		return fb
	}
	var r ExpandedStep
	if err := llmjson.Decode(out, &r); err != nil {
		log.Warn().Err(err).Str("op", "expand").Str("topic", topic).Msg("unparseable step expansion, using fallback")
		return fb
	}
	r.AdditionalContext = orDefault(r.AdditionalContext, fb.AdditionalContext)
	r.PracticalDetails = orDefault(r.PracticalDetails, fb.PracticalDetails)
	r.ImportantConsiderations = orDefault(r.ImportantConsiderations, fb.ImportantConsiderations)
	r.RealWorldExamples = orDefault(r.RealWorldExamples, fb.RealWorldExamples)
	r.PotentialChallenges = orDefault(r.PotentialChallenges, fb.PotentialChallenges)
	return r
}

func FallbackExpansion(topic, title string) ExpandedStep {
	return ExpandedStep{
		AdditionalContext:       fmt.Sprintf("%q is one building block of learning %s. Understanding it well makes the following steps easier.", title, topic),
		PracticalDetails:        fmt.Sprintf("Set aside focused sessions for %q. Take notes, try small exercises and review what you did at the end of each session.", title),
		ImportantConsiderations: fmt.Sprintf("Go at your own pace and revisit earlier material on %s when something feels unclear.", topic),
		RealWorldExamples:       fmt.Sprintf("Look for people or projects that apply %s and note how this step shows up in their work.", topic),
		PotentialChallenges:     "Progress can feel slow at first. Break the step into smaller goals and ask a community for help when stuck.",
	}
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
