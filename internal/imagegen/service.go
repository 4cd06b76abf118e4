package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dwold113/The-AI-Engineer-Challenge/internal/ai"
	"github.com/dwold113/The-AI-Engineer-Challenge/internal/apperr"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

const (
	MinPromptLen = 3
	MaxPromptLen = 1000

	// cap on the downloaded image; dall-e-3 PNGs are a few MB
	maxImageBytes = 20 << 20
)

const (
	msgTooShort     = "Prompt is too short. Please provide more details."
	msgTooLong      = "Prompt is too long. Please keep it under 1000 characters."
	msgPolicy       = "This prompt may violate content policies. Please try a different, more appropriate description."
	msgInvalidInput = "The prompt doesn't make sense or is invalid. Please provide a clearer description of the background you want."
)

type Service struct {
	Images    ai.ImageProvider
	Validator *Validator
	Model     string
	Size      string
	Quality   string
	// Used to download the generated image; its Timeout bounds the fetch.
	HTTP *http.Client
	// Largest image accepted from the fetch; larger bodies are an error.
	MaxBytes int64
}

func NewService(images ai.ImageProvider, validator *Validator, model, size, quality string, fetchTimeout time.Duration) *Service {
	return &Service{
		Images:    images,
		Validator: validator,
		Model:     model,
		Size:      size,
		Quality:   quality,
		HTTP:      &http.Client{Timeout: fetchTimeout},
		MaxBytes:  maxImageBytes,
	}
}

// Generate validates the prompt, renders it and returns the image as a data
// URL so browsers never have to fetch from the upstream CDN. Rejections are
// *apperr.Error values with status 400.
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	n := utf8.RuneCountInString(prompt)
	if n < MinPromptLen {
		return "", apperr.BadRequest(msgTooShort)
	}
	if n > MaxPromptLen {
		return "", apperr.BadRequest(msgTooLong)
	}

	if s.Validator != nil {
		if ok, msg := s.Validator.Validate(ctx, prompt); !ok {
			if msg == "" {
				msg = msgDefaultInvalid
			}
			return "", apperr.BadRequest(msg)
		}
	}

	dataURL, err := s.render(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Msg("image generation failed")
		return "", classify(err)
	}
	return dataURL, nil
}

func (s *Service) render(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	img, err := s.Images.GenerateImage(ctx, ai.ImageRequest{
		Model:   s.Model,
		Prompt:  prompt,
		Size:    s.Size,
		Quality: s.Quality,
		N:       1,
	})
	ai.ObserveImage("openai", start, err)
	if err != nil {
		return "", err
	}

	var data []byte
	switch {
	case img.B64 != "":
		data, err = base64.StdEncoding.DecodeString(img.B64)
		if err != nil {
			return "", fmt.Errorf("decode image: %w", err)
		}
	case img.URL != "":
		data, err = s.fetch(ctx, img.URL)
		if err != nil {
			return "", err
		}
	default:
		return "", ai.ErrNoImage
	}
	return DataURL(data), nil
}

func (s *Service) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	client := s.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	limit := s.MaxBytes
	if limit <= 0 {
		limit = maxImageBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("fetch image: larger than %d bytes", limit)
	}
	return data, nil
}

// DataURL encodes image bytes as a data: URL, sniffing the MIME type and
// falling back to image/png for anything that does not look like an image.
func DataURL(data []byte) string {
	mime := "image/png"
	if m := mimetype.Detect(data); strings.HasPrefix(m.String(), "image/") {
		mime = m.String()
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// classify maps upstream failures onto client-facing errors. Policy and
// malformed-input failures are the user's to fix, so they are 400s.
func classify(err error) error {
	if errors.Is(err, ai.ErrMissingAPIKey) {
		return apperr.Internal("OPENAI_API_KEY not configured", err)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "content_policy"), strings.Contains(msg, "safety"), strings.Contains(msg, "policy"):
		return &apperr.Error{Status: http.StatusBadRequest, Detail: msgPolicy, Err: err}
	case strings.Contains(msg, "invalid"), strings.Contains(msg, "malformed"):
		return &apperr.Error{Status: http.StatusBadRequest, Detail: msgInvalidInput, Err: err}
	default:
		return apperr.Internal("Error generating image: "+err.Error(), err)
	}
}
