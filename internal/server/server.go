package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dwold113/The-AI-Engineer-Challenge/internal/ai"
	"github.com/dwold113/The-AI-Engineer-Challenge/internal/apperr"
	"github.com/dwold113/The-AI-Engineer-Challenge/internal/config"
	"github.com/dwold113/The-AI-Engineer-Challenge/internal/imagegen"
	"github.com/dwold113/The-AI-Engineer-Challenge/internal/learn"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const appName = "AI Learning Experience App"

const (
	chatSystemPrompt    = "You are a supportive helper"
	chatDeveloperPrompt = "You are able to use common sense and determine if the prompt should be generated"
)

type Server struct {
	cfg    config.Config
	chat   ai.Provider
	images *imagegen.Service
	learn  *learn.Service
}

func New(cfg config.Config, chat ai.Provider, images *imagegen.Service, learner *learn.Service) *Server {
	return &Server{cfg: cfg, chat: chat, images: images, learn: learner}
}

// Collectors returns the HTTP metrics recorded by this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{httpRequests}
}

// NewRegistry returns a registry holding the Go runtime, process, LLM and
// HTTP collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(ai.Collectors()...)
	reg.MustRegister(Collectors()...)
	return reg
}

// MountMetrics exposes g at /metrics.
func MountMetrics(r *gin.Engine, g prometheus.Gatherer) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
}

// Mount registers the API routes on r.
func (srv *Server) Mount(r *gin.Engine) {
	r.GET("/", srv.root)
	r.GET("/health", srv.health)

	api := r.Group("/api")
	api.POST("/chat", srv.requireKey(false), srv.handleChat)
	api.POST("/generate-image", srv.requireKey(true), srv.handleGenerateImage)
	api.POST("/learn", srv.requireKey(false), srv.handleLearn)
	api.POST("/expand-step", srv.requireKey(false), srv.handleExpandStep)
}

func (srv *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":                    "ok",
		"openai_api_key_configured": srv.cfg.HasOpenAIKey(),
		"app":                       appName,
	})
}

func (srv *Server) health(c *gin.Context) {
	body := gin.H{"ok": true, "time": time.Now().UTC()}
	if b, ok := srv.chat.(interface{ State() string }); ok {
		body["provider"] = gin.H{"name": srv.cfg.DefaultProvider, "breaker": b.State()}
	}
	c.JSON(http.StatusOK, body)
}

// requireKey rejects requests up front when the OpenAI key is missing. Text
// routes only need it when OpenAI is the text provider; images always do.
func (srv *Server) requireKey(images bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		needed := images || srv.cfg.DefaultProvider != "ollama"
		if needed && !srv.cfg.HasOpenAIKey() {
			abort(c, apperr.Internal("OPENAI_API_KEY not configured", ai.ErrMissingAPIKey))
			return
		}
		c.Next()
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

func (srv *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, apperr.BadRequest("Invalid request body"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		abort(c, apperr.BadRequest("Message is required."))
		return
	}
	reply, err := srv.chat.Chat(c.Request.Context(), ai.ChatRequest{
		Model: srv.cfg.ChatModel,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: chatSystemPrompt},
			{Role: ai.RoleDeveloper, Content: chatDeveloperPrompt},
			{Role: ai.RoleUser, Content: req.Message},
		},
	})
	if err != nil {
		abort(c, upstreamError("Error calling OpenAI API: ", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

type imageRequest struct {
	Prompt string `json:"prompt"`
}

func (srv *Server) handleGenerateImage(c *gin.Context) {
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, apperr.BadRequest("Invalid request body"))
		return
	}
	dataURL, err := srv.images.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image_url": dataURL})
}

type learnRequest struct {
	Topic string `json:"topic"`
}

func (srv *Server) handleLearn(c *gin.Context) {
	var req learnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, apperr.BadRequest("Invalid request body"))
		return
	}
	plan, err := srv.learn.Learn(c.Request.Context(), req.Topic)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

type expandRequest struct {
	Topic           string `json:"topic"`
	StepTitle       string `json:"step_title"`
	StepDescription string `json:"step_description"`
}

func (srv *Server) handleExpandStep(c *gin.Context) {
	var req expandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, apperr.BadRequest("Invalid request body"))
		return
	}
	out, err := srv.learn.Expand(c.Request.Context(), req.Topic, req.StepTitle, req.StepDescription)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func upstreamError(prefix string, err error) error {
	if errors.Is(err, ai.ErrUnavailable) {
		return &apperr.Error{Status: http.StatusServiceUnavailable, Detail: "The AI service is temporarily unavailable. Please try again shortly.", Err: err}
	}
	return apperr.Internal(prefix+err.Error(), err)
}

// abort writes err as {"detail": ...}, the error shape the frontend expects.
func abort(c *gin.Context, err error) {
	status, detail := apperr.StatusAndDetail(err)
	if status >= 500 {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}
