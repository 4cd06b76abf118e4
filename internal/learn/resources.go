package learn

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dwold113/The-AI-Engineer-Challenge/internal/ai"
	"github.com/dwold113/The-AI-Engineer-Challenge/internal/llmjson"
	"github.com/rs/zerolog/log"
)

const resourcesSystemPrompt = "Expert librarian who recommends well-known, real learning resources with working links."

const resourcesPrompt = `Learning topic: %s

Recommend exactly %d real, reputable learning resources (official documentation, well-known courses, books, videos, tutorials).
Only include resources you are confident exist, with full https URLs.

Respond in JSON format:
{
  "examples": [{"title": "...", "url": "https://...", "description": "one sentence on why it helps"}, ...]
}

JSON only:`

type searchSite struct {
	name   string
	format string
	desc   string
}

// Deterministic links used to top up short or failed model answers.
var searchSites = []searchSite{
	{"Wikipedia", "https://en.wikipedia.org/w/index.php?search=%s", "Encyclopedia overview of %s."},
	{"YouTube", "https://www.youtube.com/results?search_query=%s+tutorial", "Video tutorials about %s."},
	{"Coursera", "https://www.coursera.org/search?query=%s", "Structured online courses on %s."},
	{"Khan Academy", "https://www.khanacademy.org/search?page_search_query=%s", "Free lessons related to %s."},
	{"edX", "https://www.edx.org/search?q=%s", "University courses covering %s."},
	{"Reddit", "https://www.reddit.com/search/?q=%s", "Community discussions and advice on learning %s."},
	{"Google Books", "https://www.google.com/search?tbm=bks&q=%s", "Books about %s."},
	{"Stack Exchange", "https://stackexchange.com/search?q=%s", "Questions and answers about %s."},
	{"MIT OpenCourseWare", "https://ocw.mit.edu/search/?q=%s", "Open course materials on %s."},
	{"Google", "https://www.google.com/search?q=%s", "Web search for more %s material."},
}

// GenerateResources returns exactly n resources. Model suggestions with
// unusable URLs are dropped and the remainder is filled with search links.
func (s *Service) GenerateResources(ctx context.Context, topic string, n int) []Resource {
	out, err := ai.CompleteWithSystem(ctx, s.Provider, s.Model, resourcesSystemPrompt, fmt.Sprintf(resourcesPrompt, topic, n),
		ai.WithMaxTokens(120*n+100), ai.WithTemperature(0.3))
	var suggested []Resource
	if err != nil {
		log.Warn().Err(err).Str("op", "resources").Str("topic", topic).Msg("resource generation failed, using search links")
	} else {
		var r struct {
			Examples []Resource `json:"examples"`
		}
		if err := llmjson.Decode(out, &r); err != nil {
			log.Warn().Err(err).Str("op", "resources").Str("topic", topic).Msg("unparseable resources, using search links")
		} else {
			suggested = r.Examples
		}
	}
	return fillResources(topic, suggested, n)
}

func fillResources(topic string, suggested []Resource, n int) []Resource {
	out := make([]Resource, 0, n)
	seen := map[string]bool{}
	add := func(r Resource) {
		if len(out) >= n || seen[r.URL] {
			return
		}
		seen[r.URL] = true
		out = append(out, r)
	}
	for _, r := range suggested {
		r.Title = strings.TrimSpace(r.Title)
		r.URL = strings.TrimSpace(r.URL)
		r.Description = strings.TrimSpace(r.Description)
		if r.Title == "" || !validURL(r.URL) {
			continue
		}
		add(r)
	}
	for _, r := range FallbackResources(topic) {
		add(r)
	}
	return out
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func FallbackResources(topic string) []Resource {
	q := url.QueryEscape(topic)
	out := make([]Resource, 0, len(searchSites))
	for _, site := range searchSites {
		out = append(out, Resource{
			Title:       fmt.Sprintf("%s: %s", site.name, topic),
			URL:         fmt.Sprintf(site.format, q),
			Description: fmt.Sprintf(site.desc, topic),
		})
	}
	return out
}
