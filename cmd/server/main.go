package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dwold113/The-AI-Engineer-Challenge/internal/ai"
	"github.com/dwold113/The-AI-Engineer-Challenge/internal/ai/ollama"
	"github.com/dwold113/The-AI-Engineer-Challenge/internal/ai/openai"
	"github.com/dwold113/The-AI-Engineer-Challenge/internal/config"
	"github.com/dwold113/The-AI-Engineer-Challenge/internal/imagegen"
	"github.com/dwold113/The-AI-Engineer-Challenge/internal/learn"
	"github.com/dwold113/The-AI-Engineer-Challenge/internal/server"
	staticserver "github.com/dwold113/The-AI-Engineer-Challenge/static"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const version = "v1.0.0-dev"

const shutdownTimeout = 10 * time.Second

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`Learning Experience - AI chat, background images and learning plans

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8000 or PORT env var)

Environment Variables (also read from ./.env):
  PORT                 Port to listen on (default: 8000)
  OPENAI_API_KEY       OpenAI API key (required for images and the OpenAI provider)
  OPENAI_BASE_URL      Custom OpenAI API base URL (optional)
  DEFAULT_PROVIDER     Text provider: "openai" or "ollama" (default: openai)
  OLLAMA_HOST          Ollama host URL (default: http://localhost:11434)
  CHAT_MODEL           Model for /api/chat (default: gpt-5, llama3.2 with ollama)
  UTILITY_MODEL        Model for validation, plans and resources (default: gpt-4o-mini, llama3.2 with ollama)
  IMAGE_MODEL          Image model (default: dall-e-3)
  IMAGE_SIZE           Image size (default: 1024x1024)
  IMAGE_QUALITY        Image quality (default: standard)
  IMAGE_FETCH_TIMEOUT  Timeout for downloading generated images (default: 5s)
  CORS_ORIGINS         Comma separated allowed origins (default: *)
  EXPORT_ENABLED       Append generated plans to a file (default: false)
  EXPORT_FILE          Path for exported plans (default: ./learning-plans.txt)
  LOG_LEVEL            debug, info, warn or error (default: info)
  LOG_FORMAT           console or json (default: console)

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000

Visit http://localhost:8000 after starting the server.
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("learning-experience %s\n", version)
		return
	}

	cfg := config.Load()
	if *portFlag != "" {
		cfg.Port = *portFlag
	}
	setupLogging(cfg)

	text := textProvider(cfg)
	oa := openai.New(cfg.OpenAIKey, cfg.OpenAIBaseURL)
	images := imagegen.NewService(oa, &imagegen.Validator{Provider: text, Model: cfg.UtilityModel},
		cfg.ImageModel, cfg.ImageSize, cfg.ImageQuality, cfg.ImageFetchTimeout)

	var exporter *learn.Exporter
	if cfg.ExportEnabled {
		exporter = learn.NewExporter(cfg.ExportFile)
		log.Info().Str("file", exporter.Path()).Msg("plan export enabled")
	}
	learner := learn.NewService(text, cfg.UtilityModel, exporter)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(server.RequestLogger())
	r.Use(server.CORS(cfg.CORSOrigins))

	server.MountMetrics(r, server.NewRegistry())
	server.New(cfg, text, images, learner).Mount(r)

	// Serve frontend for all other routes
	static := staticserver.Handler()
	r.NoRoute(gin.WrapH(static))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Str("provider", cfg.DefaultProvider).Bool("openai_key", cfg.HasOpenAIKey()).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func setupLogging(cfg config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if strings.EqualFold(cfg.LogFormat, "console") {
		cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = log.Output(cw)
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("LOG_LEVEL", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// textProvider picks the chat backend and guards it with a circuit breaker.
func textProvider(cfg config.Config) ai.Provider {
	var inner ai.Provider
	switch cfg.DefaultProvider {
	case "ollama":
		inner = ollama.New(cfg.OllamaHost)
	case "openai":
		inner = openai.New(cfg.OpenAIKey, cfg.OpenAIBaseURL)
	default:
		log.Warn().Str("provider", cfg.DefaultProvider).Msg("unknown DEFAULT_PROVIDER, using openai")
		inner = openai.New(cfg.OpenAIKey, cfg.OpenAIBaseURL)
	}
	return ai.NewBreaker(cfg.DefaultProvider, inner, ai.DefaultBreakerSettings())
}
