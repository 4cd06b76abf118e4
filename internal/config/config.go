package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// OllamaDefaultModel is used for chat and utility calls when the text
// provider is Ollama and no model is configured.
const OllamaDefaultModel = "llama3.2"

type Config struct {
	Port              string
	DefaultProvider   string
	ChatModel         string
	UtilityModel      string
	ImageModel        string
	ImageSize         string
	ImageQuality      string
	ImageFetchTimeout time.Duration
	OpenAIKey         string
	OpenAIBaseURL     string
	OllamaHost        string
	CORSOrigins       []string
	ExportEnabled     bool
	ExportFile        string
	LogLevel          string
	LogFormat         string
}

// Load reads a .env file from the working directory (if any) and then builds
// the Config from the environment. Variables already set in the process
// environment are not overridden by the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env")
	}
	return FromEnv()
}

func FromEnv() Config {
	c := Config{}
	c.Port = getenv("PORT", "8000")
	c.DefaultProvider = getenv("DEFAULT_PROVIDER", "openai")
	chatModel, utilityModel := "gpt-5", "gpt-4o-mini"
	if c.DefaultProvider == "ollama" {
		chatModel, utilityModel = OllamaDefaultModel, OllamaDefaultModel
	}
	c.ChatModel = getenv("CHAT_MODEL", chatModel)
	c.UtilityModel = getenv("UTILITY_MODEL", utilityModel)
	c.ImageModel = getenv("IMAGE_MODEL", "dall-e-3")
	c.ImageSize = getenv("IMAGE_SIZE", "1024x1024")
	c.ImageQuality = getenv("IMAGE_QUALITY", "standard")
	c.ImageFetchTimeout = getduration("IMAGE_FETCH_TIMEOUT", 5*time.Second)
	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	c.OllamaHost = getenv("OLLAMA_HOST", "http://localhost:11434")
	c.CORSOrigins = splitList(getenv("CORS_ORIGINS", "*"))
	c.ExportEnabled = getenv("EXPORT_ENABLED", "false") == "true"
	c.ExportFile = getenv("EXPORT_FILE", "./learning-plans.txt")
	c.LogLevel = getenv("LOG_LEVEL", "info")
	c.LogFormat = getenv("LOG_FORMAT", "console")
	return c
}

// HasOpenAIKey reports whether the OpenAI key is configured.
func (c Config) HasOpenAIKey() bool { return c.OpenAIKey != "" }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warn().Str("key", k).Str("value", v).Dur("default", def).Msg("invalid duration, using default")
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
