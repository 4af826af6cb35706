package analysis

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aljonleynes11/media-coding-exam-backend/config"
)

const (
	ProviderOpenAI     = "openai"
	ProviderCloudinary = "cloudinary"
	ProviderGemini     = "gemini"
)

const (
	systemPrompt = "You analyze images and return strictly JSON with fields: tags (5-10 concise lowercase nouns), " +
		"description (one sentence), colors (top 3 hex like #RRGGBB). No extra text."
	userPrompt = "Analyze this image and return JSON with keys: tags, description, colors."

	// upper bound of a vendor error body kept in a ProviderError
	errorBodyLimit = 4 << 10
)

// Provider describes the image behind a (signed) URL. Implementations return
// an already normalized Result or a *ProviderError / *ConfigError.
type Provider interface {
	Analyze(ctx context.Context, imageURL string) (Result, error)
}

// NewProvider builds the provider named by cfg.Provider. Credentials are not
// checked here; a provider without them fails each call with a ConfigError.
func NewProvider(cfg config.AnalysisConfig, client *http.Client) (Provider, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.ProviderTimeout}
	}
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAI(cfg, client), nil
	case ProviderCloudinary:
		return NewCloudinary(cfg, client), nil
	case ProviderGemini:
		return NewGemini(cfg, client), nil
	default:
		return nil, fmt.Errorf("analysis: unknown provider %q", cfg.Provider)
	}
}

func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, errorBodyLimit))
	return strings.TrimSpace(string(b))
}
