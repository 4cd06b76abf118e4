package learn

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeUsesModelVerdict(t *testing.T) {
	p := newScripted().on(analyzeSystemPrompt, "```json\n{\"clean_topic\":\"python programming\",\"num_steps\":3,\"num_resources\":null,\"is_valid\":true,\"validation_message\":\"\"}\n```")
	s := NewService(p, "gpt-4o-mini", nil)

	a := s.Analyze(context.Background(), "python programming give me 3 steps")
	assert.True(t, a.Valid)
	assert.Equal(t, "python programming", a.CleanTopic)
	require.NotNil(t, a.NumSteps)
	assert.Equal(t, 3, *a.NumSteps)
	assert.Nil(t, a.NumResources)
	assert.Contains(t, p.promptFor(analyzeSystemPrompt), `"python programming give me 3 steps"`)

	req := p.reqs[analyzeSystemPrompt]
	assert.Equal(t, 200, req.MaxTokens)
}

func TestAnalyzeRejection(t *testing.T) {
	p := newScripted().on(analyzeSystemPrompt, `{"clean_topic":"donald trump","num_steps":null,"is_valid":false,"validation_message":"Please enter a skill or subject rather than a specific person."}`)
	a := NewService(p, "m", nil).Analyze(context.Background(), "donald trump")
	assert.False(t, a.Valid)
	assert.Equal(t, "Please enter a skill or subject rather than a specific person.", a.Message)
}

func TestAnalyzeFillsCountsFromTopic(t *testing.T) {
	p := newScripted().on(analyzeSystemPrompt, `{"clean_topic":"Machine Learning","is_valid":true}`)
	a := NewService(p, "m", nil).Analyze(context.Background(), "Machine Learning give 5 steps and 8 examples")
	require.NotNil(t, a.NumSteps)
	require.NotNil(t, a.NumResources)
	assert.Equal(t, 5, *a.NumSteps)
	assert.Equal(t, 8, *a.NumResources)
}

func TestAnalyzeAcceptsStringCounts(t *testing.T) {
	p := newScripted().on(analyzeSystemPrompt, `{"clean_topic":"cooking","num_steps":"4","num_resources":"","is_valid":true}`)
	a := NewService(p, "m", nil).Analyze(context.Background(), "cooking in 4 steps")
	require.NotNil(t, a.NumSteps)
	assert.Equal(t, 4, *a.NumSteps)
	assert.Nil(t, a.NumResources)
}

func TestAnalyzeRejectsBareFiller(t *testing.T) {
	p := newScripted().on(analyzeSystemPrompt, `{"clean_topic":"learning","is_valid":true}`)
	a := NewService(p, "m", nil).Analyze(context.Background(), "learning")
	assert.False(t, a.Valid)
}

func TestAnalyzeFallback(t *testing.T) {
	tests := []struct {
		topic string
		clean string
		valid bool
		steps *int
	}{
		{"learning spanish.", "spanish", true, nil},
		{"How to   run a marathon", "run a marathon", true, nil},
		{"python programming give me 3 steps", "python programming", true, intPtr(3)},
		{"python give me -5 steps", "python", true, intPtr(-5)},
		{"学习中文", "学习中文", true, nil},
		{"123456", "123456", false, nil},
		{"<script>alert('xss')</script>", "<script>alert('xss')</script>", false, nil},
		{"a", "a", false, nil},
		{"how to", "how to", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			p := newScripted().fail(analyzeSystemPrompt)
			a := NewService(p, "m", nil).Analyze(context.Background(), tt.topic)
			assert.Equal(t, tt.clean, a.CleanTopic)
			assert.Equal(t, tt.valid, a.Valid)
			assert.Equal(t, tt.steps, a.NumSteps)
			if !tt.valid {
				assert.Equal(t, msgUnableToValidate, a.Message)
			}
		})
	}
}

func TestAnalyzeFallbackOnGarbage(t *testing.T) {
	p := newScripted().on(analyzeSystemPrompt, "I'm not sure what you mean.")
	a := NewService(p, "m", nil).Analyze(context.Background(), "photography basics")
	assert.True(t, a.Valid)
	assert.Equal(t, "photography basics", a.CleanTopic)
}

func intPtr(n int) *int { return &n }

func TestAnalyzeRejectsEmptyCleanTopic(t *testing.T) {
	p := newScripted().on(analyzeSystemPrompt, `{"clean_topic":"","is_valid":true}`)
	a := NewService(p, "m", nil).Analyze(context.Background(), "give me 5 steps")
	assert.False(t, a.Valid)
	assert.Empty(t, a.CleanTopic)
	assert.Equal(t, msgNotLearnable, a.Message)
}

func TestAnalyzeSaturatesOutOfRangeCounts(t *testing.T) {
	tests := []struct {
		reply string
		want  *int
	}{
		{`{"clean_topic":"python","num_steps":1e20,"is_valid":true}`, intPtr(math.MaxInt32)},
		{`{"clean_topic":"python","num_steps":-1e300,"is_valid":true}`, intPtr(math.MinInt32)},
		{`{"clean_topic":"python","num_steps":"1e400","is_valid":true}`, nil},
		{`{"clean_topic":"python","num_steps":4.9,"is_valid":true}`, intPtr(4)},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			p := newScripted().on(analyzeSystemPrompt, tt.reply)
			a := NewService(p, "m", nil).Analyze(context.Background(), "python")
			assert.Equal(t, tt.want, a.NumSteps)
		})
	}
}

func TestAnalyzeKeepsNoteForValidTopic(t *testing.T) {
	p := newScripted().on(analyzeSystemPrompt, `{"clean_topic":"python","is_valid":true,"validation_message":"Focusing on Python basics."}`)
	a := NewService(p, "m", nil).Analyze(context.Background(), "python stuff")
	assert.True(t, a.Valid)
	assert.Equal(t, "Focusing on Python basics.", a.Message)
}
