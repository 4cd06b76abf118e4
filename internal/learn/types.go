package learn

import "time"

type Step struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Resource struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Plan is the response body of /api/learn.
type Plan struct {
	ID        string     `json:"id"`
	Topic     string     `json:"topic"`
	Steps     []Step     `json:"plan"`
	Resources []Resource `json:"examples"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Analysis is what the topic extractor learned about a raw request.
type Analysis struct {
	CleanTopic   string
	NumSteps     *int
	NumResources *int
	Valid        bool
	Message      string
}

// ExpandedStep is the response body of /api/expand-step.
type ExpandedStep struct {
	AdditionalContext       string `json:"additionalContext"`
	PracticalDetails        string `json:"practicalDetails"`
	ImportantConsiderations string `json:"importantConsiderations"`
	RealWorldExamples       string `json:"realWorldExamples"`
	PotentialChallenges     string `json:"potentialChallenges"`
}
