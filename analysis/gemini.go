package analysis

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/aljonleynes11/media-coding-exam-backend/config"
	"google.golang.org/genai"
)

// Gemini sends the image URL and the analysis prompt to a Gemini model in a
// single GenerateContent call with a JSON response type.
type Gemini struct {
	httpClient *http.Client
	apiKey     string
	model      string

	once      sync.Once
	client    *genai.Client
	clientErr error
}

func NewGemini(cfg config.AnalysisConfig, client *http.Client) *Gemini {
	return &Gemini{
		httpClient: client,
		apiKey:     cfg.GeminiAPIKey,
		model:      cfg.GeminiModel,
	}
}

func (g *Gemini) genaiClient(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		g.client, g.clientErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:     g.apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: g.httpClient,
		})
	})
	return g.client, g.clientErr
}

func (g *Gemini) Analyze(ctx context.Context, imageURL string) (Result, error) {
	if g.apiKey == "" {
		return Result{}, &ConfigError{Setting: "GEMINI_API_KEY"}
	}

	client, err := g.genaiClient(ctx)
	if err != nil {
		return Result{}, &ProviderError{Provider: ProviderGemini, Err: err}
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(userPrompt),
			genai.NewPartFromURI(imageURL, imageMIMEType(imageURL)),
		}, genai.RoleUser),
	}
	resp, err := client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.5),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return Result{}, &ProviderError{Provider: ProviderGemini, Err: err}
	}

	return Normalize(parseContent(resp.Text())), nil
}

// imageMIMEType guesses the MIME type from the object name in the URL;
// uploads are JPEG or PNG only.
func imageMIMEType(imageURL string) string {
	p := imageURL
	if u, err := url.Parse(imageURL); err == nil {
		p = u.Path
	}
	if strings.EqualFold(path.Ext(p), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
