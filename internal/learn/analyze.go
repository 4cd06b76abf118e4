package learn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dwold113/The-AI-Engineer-Challenge/internal/ai"
	"github.com/dwold113/The-AI-Engineer-Challenge/internal/llmjson"
	"github.com/rs/zerolog/log"
)

const (
	msgUnableToValidate = "Unable to validate this topic. Please enter a clear, learnable subject, skill, or concept."
	msgNotLearnable     = "This doesn't seem like a valid learning topic. Please enter something specific you want to learn."
)

var (
	stepsRe     = regexp.MustCompile(`(?i)(-?\d+)\s*steps?\b`)
	resourcesRe = regexp.MustCompile(`(?i)(-?\d+)\s*(?:resources?|examples?)\b`)
	countPhrase = regexp.MustCompile(`(?i)[,;]?\s*(?:and\s+)?(?:please\s+)?(?:give|show|with|in)?\s*(?:me\s+)?-?\d+\s*(?:steps?|resources?|examples?)\b`)
	trailPunct  = regexp.MustCompile(`[.,;:]+$`)
	spaces      = regexp.MustCompile(`\s+`)
	leadFiller  = regexp.MustCompile(`(?i)^(?:i want to learn|teach me|how to|learning|learn)\s+`)

	fillerOnly = map[string]bool{"learn": true, "learning": true, "how to": true, "teach me": true, "i want to learn": true}
)

const analyzeSystemPrompt = "Expert at extracting and validating learning topics. Be balanced - approve valid learning topics (languages, skills, subjects, concepts) but reject gibberish, person names, and nonsensical combinations. Languages like 'amharic', 'spanish', 'japanese' are always valid."

const analyzePrompt = `Analyze this learning topic request: %q

Extract and validate:
1. Clean topic (remove "how to", "learn", "learning", "teach me", step or resource counts, etc. - just the core topic)
2. Extract any requested number of steps (if mentioned, like "give me 3 steps")
3. Extract any requested number of resources or examples (if mentioned, like "give me 10 resources")
4. Validate if this is a valid learning topic

APPROVE these types of topics:
- Languages (e.g., "amharic", "spanish", "japanese", "swahili", "learning amharic", "how to learn amharic")
- Skills (e.g., "cooking", "programming", "painting", "photography")
- Subjects (e.g., "mathematics", "history", "biology", "philosophy")
- Concepts (e.g., "machine learning", "quantum physics", "music theory")
- Practical topics (e.g., "how to run a marathon", "how to start a business")

REJECT only these:
- Gibberish/random characters (e.g., "fgnrjk gnsogfd", "asdfgh")
- Random unrelated words (e.g., "time space coffee", "car tree music")
- Specific real person names (e.g., "donald trump", "barack obama", "elon musk")
- Too vague or abstract to create a learning plan

Respond in JSON:
{
  "clean_topic": "cleaned topic",
  "num_steps": number or null,
  "num_resources": number or null,
  "is_valid": true/false,
  "validation_message": "message if invalid, empty if valid"
}

JSON only:`

// flexInt accepts a JSON number, a numeric string or null.
type flexInt struct{ v *int }

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n = json.Number(strings.TrimSpace(s))
	}
	if n == "" {
		return nil
	}
	i, err := strconv.ParseFloat(string(n), 64)
	if err != nil || math.IsNaN(i) || math.IsInf(i, 0) {
		return nil
	}
	// saturate so huge requests are clamped later, not wrapped to negative
	i = max(min(i, math.MaxInt32), math.MinInt32)
	v := int(i)
	f.v = &v
	return nil
}

type analyzeReply struct {
	CleanTopic        string  `json:"clean_topic"`
	NumSteps          flexInt `json:"num_steps"`
	NumResources      flexInt `json:"num_resources"`
	IsValid           bool    `json:"is_valid"`
	ValidationMessage string  `json:"validation_message"`
}

// Analyze extracts the core topic and any requested counts from a raw request
// and decides whether it is learnable. The model does the judging; when it
// cannot be reached a conservative local cleanup takes over.
func (s *Service) Analyze(ctx context.Context, topic string) Analysis {
	out, err := ai.CompleteWithSystem(ctx, s.Provider, s.Model, analyzeSystemPrompt, fmt.Sprintf(analyzePrompt, topic),
		ai.WithMaxTokens(200), ai.WithTemperature(0.1))
	if err != nil {
		log.Warn().Err(err).Str("op", "analyze").Msg("topic analysis failed, using local fallback")
		return fallbackAnalysis(topic)
	}
	var r analyzeReply
	if err := llmjson.Decode(out, &r); err != nil {
		log.Warn().Err(err).Str("op", "analyze").Msg("unparseable topic analysis, using local fallback")
		return fallbackAnalysis(topic)
	}

	a := Analysis{
		CleanTopic:   strings.TrimSpace(r.CleanTopic),
		NumSteps:     r.NumSteps.v,
		NumResources: r.NumResources.v,
		Valid:        r.IsValid,
		Message:      strings.TrimSpace(r.ValidationMessage),
	}
	if a.CleanTopic == "" {
		a.CleanTopic = cleanTopic(topic)
	}
	if a.NumSteps == nil {
		a.NumSteps = extractCount(stepsRe, topic)
	}
	if a.NumResources == nil {
		a.NumResources = extractCount(resourcesRe, topic)
	}
	if a.CleanTopic == "" || fillerOnly[strings.ToLower(a.CleanTopic)] {
		a.Valid = false
		if a.Message == "" {
			a.Message = msgNotLearnable
		}
	}
	return a
}

func fallbackAnalysis(topic string) Analysis {
	clean := cleanTopic(topic)
	a := Analysis{
		CleanTopic:   clean,
		NumSteps:     extractCount(stepsRe, topic),
		NumResources: extractCount(resourcesRe, topic),
	}
	if looksLearnable(clean) {
		a.Valid = true
	} else {
		a.Message = msgUnableToValidate
	}
	return a
}

// cleanTopic strips trailing punctuation, "how to"-style lead-ins and count
// requests like "give me 3 steps".
func cleanTopic(topic string) string {
	t := countPhrase.ReplaceAllString(topic, "")
	t = strings.TrimSpace(trailPunct.ReplaceAllString(strings.TrimSpace(t), ""))
	t = spaces.ReplaceAllString(t, " ")
	t = leadFiller.ReplaceAllString(t, "")
	return strings.TrimSpace(t)
}

func looksLearnable(t string) bool {
	if utf8.RuneCountInString(t) < 2 || fillerOnly[strings.ToLower(t)] {
		return false
	}
	hasLetter := false
	for _, r := range t {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r), r == ' ':
		default:
			return false
		}
	}
	return hasLetter
}

func extractCount(re *regexp.Regexp, s string) *int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}
