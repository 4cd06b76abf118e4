package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dwold113/The-AI-Engineer-Challenge/internal/ai"
	"github.com/dwold113/The-AI-Engineer-Challenge/internal/config"
	"github.com/dwold113/The-AI-Engineer-Challenge/internal/imagegen"
	"github.com/dwold113/The-AI-Engineer-Challenge/internal/learn"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

// echoProvider replies with reply, or err when set, and records the last request.
type echoProvider struct {
	mu    sync.Mutex
	reply string
	err   error
	last  ai.ChatRequest
}

func (p *echoProvider) Chat(ctx context.Context, req ai.ChatRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = req
	return p.reply, p.err
}

type b64Images struct{}

func (b64Images) GenerateImage(ctx context.Context, req ai.ImageRequest) (ai.Image, error) {
	return ai.Image{B64: base64.StdEncoding.EncodeToString(pngBytes)}, nil
}

func testConfig() config.Config {
	return config.Config{
		DefaultProvider: "openai",
		ChatModel:       "gpt-5",
		UtilityModel:    "gpt-4o-mini",
		OpenAIKey:       "sk-test",
	}
}

func newTestRouter(cfg config.Config, p ai.Provider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	images := imagegen.NewService(b64Images{}, &imagegen.Validator{}, "dall-e-3", "1024x1024", "standard", time.Second)
	r := gin.New()
	r.Use(RequestLogger())
	New(cfg, p, images, learn.NewService(p, cfg.UtilityModel, nil)).Mount(r)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRoot(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIKey = ""
	w := do(newTestRouter(cfg, &echoProvider{}), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["openai_api_key_configured"])
	assert.Equal(t, appName, body["app"])
}

func TestHealthReportsBreaker(t *testing.T) {
	p := ai.NewBreaker("openai", &echoProvider{reply: "hi"}, ai.DefaultBreakerSettings())
	w := do(newTestRouter(testConfig(), p), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, map[string]any{"name": "openai", "breaker": "closed"}, body["provider"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestChat(t *testing.T) {
	p := &echoProvider{reply: "Hello there!"}
	w := do(newTestRouter(testConfig(), p), http.MethodPost, "/api/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hello there!", decode(t, w)["reply"])

	require.Len(t, p.last.Messages, 3)
	assert.Equal(t, "gpt-5", p.last.Model)
	assert.Equal(t, ai.RoleSystem, p.last.Messages[0].Role)
	assert.Equal(t, ai.RoleDeveloper, p.last.Messages[1].Role)
	assert.Equal(t, ai.Message{Role: ai.RoleUser, Content: "hi"}, p.last.Messages[2])
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name   string
		cfg    func(*config.Config)
		p      *echoProvider
		body   string
		status int
		detail string
	}{
		{"missing key", func(c *config.Config) { c.OpenAIKey = "" }, &echoProvider{}, `{"message":"hi"}`, 500, "OPENAI_API_KEY not configured"},
		{"malformed body", nil, &echoProvider{}, `{"message":`, 400, "Invalid request body"},
		{"blank message", nil, &echoProvider{}, `{"message":"  "}`, 400, "Message is required."},
		{"upstream failure", nil, &echoProvider{err: errors.New("boom")}, `{"message":"hi"}`, 500, "Error calling OpenAI API: boom"},
		{"breaker open", nil, &echoProvider{err: ai.ErrUnavailable}, `{"message":"hi"}`, 503, "The AI service is temporarily unavailable. Please try again shortly."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			w := do(newTestRouter(cfg, tt.p), http.MethodPost, "/api/chat", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.detail, decode(t, w)["detail"])
		})
	}
}

func TestOllamaNeedsNoKeyForText(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIKey = ""
	cfg.DefaultProvider = "ollama"
	r := newTestRouter(cfg, &echoProvider{reply: "hallo"})

	w := do(r, http.MethodPost, "/api/chat", `{"message":"hi"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/generate-image", `{"prompt":"a sunset over mountains"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "OPENAI_API_KEY not configured", decode(t, w)["detail"])
}

func TestGenerateImage(t *testing.T) {
	r := newTestRouter(testConfig(), &echoProvider{})

	w := do(r, http.MethodPost, "/api/generate-image", `{"prompt":"a sunset over mountains"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(decode(t, w)["image_url"].(string), "data:image/png;base64,"))

	w = do(r, http.MethodPost, "/api/generate-image", `{"prompt":"ab"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decode(t, w)["detail"])
}

func TestLearnFallsBackWhenModelIsDown(t *testing.T) {
	p := &echoProvider{err: errors.New("upstream down")}
	w := do(newTestRouter(testConfig(), p), http.MethodPost, "/api/learn", `{"topic":"learning spanish"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var plan learn.Plan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.Equal(t, "spanish", plan.Topic)
	assert.Equal(t, learn.FallbackPlan("spanish"), plan.Steps)
	assert.Len(t, plan.Resources, learn.DefaultResources)
	assert.NotEmpty(t, plan.ID)
}

func TestLearnRejectsEmptyTopic(t *testing.T) {
	w := do(newTestRouter(testConfig(), &echoProvider{}), http.MethodPost, "/api/learn", `{"topic":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decode(t, w)["detail"])
}

func TestExpandStep(t *testing.T) {
	p := &echoProvider{reply: `{"additionalContext":"a","practicalDetails":"b","importantConsiderations":"c","realWorldExamples":"d","potentialChallenges":"e"}`}
	r := newTestRouter(testConfig(), p)

	w := do(r, http.MethodPost, "/api/expand-step", `{"topic":"python","step_title":"Step 1: Setup","step_description":"Install Python"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{
		"additionalContext":       "a",
		"practicalDetails":        "b",
		"importantConsiderations": "c",
		"realWorldExamples":       "d",
		"potentialChallenges":     "e",
	}, decode(t, w))

	w = do(r, http.MethodPost, "/api/expand-step", `{"topic":"python"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsCountRequests(t *testing.T) {
	r := newTestRouter(testConfig(), &echoProvider{})
	MountMetrics(r, NewRegistry())

	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "").Code)
	w := do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",route="/health",status="200"}`)
	assert.Contains(t, body, "go_goroutines")
}
