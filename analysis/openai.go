package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aljonleynes11/media-coding-exam-backend/config"
)

// OpenAI asks an OpenAI-compatible chat completions endpoint for tags,
// description and colors in a single multimodal request.
type OpenAI struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
}

func NewOpenAI(cfg config.AnalysisConfig, client *http.Client) *OpenAI {
	o := &OpenAI{
		httpClient: client,
		baseURL:    strings.TrimRight(cfg.OpenAIBaseURL, "/"),
		apiKey:     cfg.OpenAIAPIKey,
		model:      cfg.OpenAIModel,
	}
	switch {
	case cfg.OpenAITemperature != nil:
		o.temperature = *cfg.OpenAITemperature
	case o.model == "gpt-5":
		o.temperature = 1
	default:
		o.temperature = 0.5
	}
	return o
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openAIRequest struct {
	Model          string            `json:"model"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
	Messages       []openAIMessage   `json:"messages"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *OpenAI) Analyze(ctx context.Context, imageURL string) (Result, error) {
	if o.apiKey == "" {
		return Result{}, &ConfigError{Setting: "OPENAI_API_KEY"}
	}

	payload := openAIRequest{
		Model:          o.model,
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    o.temperature,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []openAIContentPart{
				{Type: "text", Text: userPrompt},
				{Type: "image_url", ImageURL: &openAIImageURL{URL: imageURL}},
			}},
		},
	}

	body := &bytes.Buffer{}
	if err := json.NewEncoder(body).Encode(payload); err != nil {
		return Result{}, fmt.Errorf("analysis: openai: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/chat/completions", body)
	if err != nil {
		return Result{}, fmt.Errorf("analysis: openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return Result{}, &ProviderError{Provider: ProviderOpenAI, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, &ProviderError{
			Provider:   ProviderOpenAI,
			StatusCode: resp.StatusCode,
			Body:       readErrorBody(resp.Body),
		}
	}

	var decoded openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, &ProviderError{Provider: ProviderOpenAI, Err: fmt.Errorf("decode response: %w", err)}
	}

	content := ""
	if len(decoded.Choices) > 0 {
		content = decoded.Choices[0].Message.Content
	}
	return Normalize(parseContent(content)), nil
}

// parseContent decodes the model's JSON answer. Content that is not JSON is
// kept as the description.
func parseContent(content string) any {
	if content == "" {
		return map[string]any{}
	}
	var parsed any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return map[string]any{"description": content}
	}
	return parsed
}
