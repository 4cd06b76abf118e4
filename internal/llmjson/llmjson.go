// Package llmjson turns chat-model replies into JSON values. Models often wrap
// JSON in markdown fences or surround it with prose; both are tolerated.
package llmjson

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fenceStart = regexp.MustCompile("(?is)^\\s*```(?:json)?\\s*")
	fenceEnd   = regexp.MustCompile("(?s)\\s*```\\s*$")
	objectSpan = regexp.MustCompile(`(?s)\{.*\}`)
)

// Clean strips a BOM and a surrounding ```json / ``` fence.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "\uFEFF")
	s = fenceStart.ReplaceAllString(s, "")
	s = fenceEnd.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Decode cleans raw and unmarshals it into v. If the cleaned text is not
// valid JSON, the widest {...} span is tried before giving up with the
// original error.
func Decode(raw string, v any) error {
	s := Clean(raw)
	err := json.Unmarshal([]byte(s), v)
	if err == nil {
		return nil
	}
	span := objectSpan.FindString(s)
	if span == "" {
		return err
	}
	if err2 := json.Unmarshal([]byte(span), v); err2 != nil {
		return err
	}
	return nil
}
