package imagegen

import (
	"context"
	"slices"
	"strings"

	"github.com/dwold113/The-AI-Engineer-Challenge/internal/ai"
	"github.com/rs/zerolog/log"
)

const (
	msgNotVisual      = "This doesn't describe a visual scene. Please describe what you want to see, like 'a sunset over mountains' or 'a cozy coffee shop'."
	msgMoreDetails    = "Please provide more details about what you want to see."
	msgRepeated       = "Please provide a meaningful description, not just repeated characters."
	msgAnimated       = "DALL-E can only generate static images, not animated GIFs. Try describing the scene instead, like 'a boy dancing' or 'a dancing boy in motion'. You can upload your own GIF files using the 'Upload Image' option."
	msgAINotVisual    = "This doesn't describe a visual scene. Please describe what you want to see, like 'a sunset over mountains' or 'abstract geometric patterns'."
	msgDefaultInvalid = "This prompt doesn't clearly describe a visual scene. Please provide more details about what background you want to see."
)

var (
	placeholderWords = []string{"test", "dummy", "placeholder", "example", "sample", "asdf", "qwerty"}
	animatedKeywords = []string{"gif", "animated", "animation", "moving", "video"}
	// Matched as substrings, so short entries like "at" or "of" catch most
	// descriptive phrases and keep the AI check for the odd cases.
	visualKeywords = []string{
		"at", "with", "of", "in", "on", "over", "under", "through", "across",
		"sunset", "sunrise", "night", "day", "city", "mountain", "ocean", "forest",
		"beach", "sky", "cloud", "star", "light", "dark", "color", "abstract",
		"pattern", "scene", "landscape", "portrait", "view",
	}
	personNames = []string{"elon", "musk", "taylor", "swift", "obama", "trump", "biden", "gates", "bezos", "zuckerberg"}
)

const validatorSystemPrompt = "Validate image prompts. Only approve visual scenes/objects. Reject abstract concepts or specific real people."

// Validator decides whether a prompt describes something that can be drawn.
// Cheap heuristics run first; the model is only consulted for prompts the
// heuristics cannot settle.
type Validator struct {
	Provider ai.Provider
	Model    string
}

// Validate returns ok=false with a user-facing reason when the prompt should
// not be sent to the image model. Upstream failures never reject a prompt.
func (v *Validator) Validate(ctx context.Context, prompt string) (bool, string) {
	lower := strings.ToLower(strings.TrimSpace(prompt))
	words := strings.Fields(lower)

	if len(words) <= 2 {
		for _, w := range words {
			if slices.Contains(placeholderWords, w) {
				return false, msgNotVisual
			}
		}
	}
	if len(words) < 2 {
		return false, msgMoreDetails
	}
	if distinctRunes(strings.ReplaceAll(lower, " ", "")) < 3 {
		return false, msgRepeated
	}
	if containsAny(lower, animatedKeywords) {
		return false, msgAnimated
	}
	if containsAny(lower, visualKeywords) && !containsAny(lower, personNames) {
		return true, ""
	}
	if v.Provider == nil {
		return true, ""
	}
	return v.askModel(ctx, prompt)
}

func (v *Validator) askModel(ctx context.Context, prompt string) (bool, string) {
	q := `Is this a valid image prompt? "` + prompt + `"

Respond ONLY:
- "VALID" if it describes a visual scene/object (not abstract concepts or specific real people)
- "INVALID: [reason]" if it's abstract, philosophical, or requests a specific real person

Response:`
	out, err := ai.CompleteWithSystem(ctx, v.Provider, v.Model, validatorSystemPrompt, q,
		ai.WithMaxTokens(30), ai.WithTemperature(0.1))
	if err != nil {
		log.Warn().Err(err).Msg("prompt validation failed, allowing prompt")
		return true, ""
	}
	return parseVerdict(out)
}

func parseVerdict(out string) (bool, string) {
	res := strings.TrimSpace(out)
	upper := strings.ToUpper(res)
	switch {
	case strings.HasPrefix(upper, "INVALID"):
		reason := strings.TrimSpace(res[len("INVALID"):])
		reason = strings.TrimSpace(strings.TrimPrefix(reason, ":"))
		if reason == "" {
			return false, msgAINotVisual
		}
		return false, reason
	case strings.HasPrefix(upper, "VALID"):
		return true, ""
	default:
		// unexpected format: let the image model decide
		return true, ""
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func distinctRunes(s string) int {
	seen := map[rune]struct{}{}
	for _, r := range s {
		seen[r] = struct{}{}
	}
	return len(seen)
}
