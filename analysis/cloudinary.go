package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aljonleynes11/media-coding-exam-backend/config"
)

// Cloudinary analyzes an image with two independent calls to the Cloudinary
// Analyze API: AI vision tagging and captioning. It never reports colors.
type Cloudinary struct {
	httpClient *http.Client
	baseURL    string
	cloudName  string
	apiKey     string
	apiSecret  string
}

func NewCloudinary(cfg config.AnalysisConfig, client *http.Client) *Cloudinary {
	return &Cloudinary{
		httpClient: client,
		baseURL:    strings.TrimRight(cfg.CloudinaryBaseURL, "/"),
		cloudName:  cfg.CloudinaryCloudName,
		apiKey:     cfg.CloudinaryAPIKey,
		apiSecret:  cfg.CloudinaryAPISecret,
	}
}

// errDegraded marks a call that got a non-2xx answer. Such a call only
// empties its half of the result.
var errDegraded = errors.New("non-2xx response")

func (c *Cloudinary) Analyze(ctx context.Context, imageURL string) (Result, error) {
	switch {
	case c.cloudName == "":
		return Result{}, &ConfigError{Setting: "CLOUDINARY_CLOUD_NAME"}
	case c.apiKey == "" || c.apiSecret == "":
		return Result{}, &ConfigError{Setting: "CLOUDINARY_API_KEY or CLOUDINARY_API_SECRET"}
	}

	tagging, tagErr := c.analyze(ctx, "ai_vision_tagging", imageURL)
	if tagErr != nil && !errors.Is(tagErr, errDegraded) {
		return Result{}, tagErr
	}
	captioning, capErr := c.analyze(ctx, "captioning", imageURL)
	if capErr != nil && !errors.Is(capErr, errDegraded) {
		return Result{}, capErr
	}
	if tagErr != nil && capErr != nil {
		return Result{}, &ProviderError{Provider: ProviderCloudinary, Err: errors.Join(tagErr, capErr)}
	}

	return Normalize(map[string]any{
		"tags":        extractTags(tagging),
		"description": extractCaption(captioning),
		"colors":      []any{},
	}), nil
}

// analyze posts one Analyze API request. A non-2xx status yields errDegraded;
// a body that is not JSON is treated as empty.
func (c *Cloudinary) analyze(ctx context.Context, analysis, imageURL string) (any, error) {
	body, err := json.Marshal(map[string]any{"source": map[string]string{"uri": imageURL}})
	if err != nil {
		return nil, fmt.Errorf("analysis: cloudinary: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/analysis/%s/analyze/%s", c.baseURL, url.PathEscape(c.cloudName), analysis)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("analysis: cloudinary: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderCloudinary, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %w: %d %s", analysis, errDegraded, resp.StatusCode, readErrorBody(resp.Body))
	}

	var decoded any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return map[string]any{}, nil
	}
	return decoded, nil
}

// extractTags looks for the tag list at the top level, under result or under
// data, or takes a bare array answer as the list itself.
func extractTags(payload any) []any {
	if list, ok := payload.([]any); ok {
		return tagStrings(list)
	}
	obj, _ := payload.(map[string]any)
	for _, candidate := range []any{obj["tags"], nested(obj, "result", "tags"), nested(obj, "data", "tags")} {
		if list, ok := candidate.([]any); ok {
			return tagStrings(list)
		}
	}
	return []any{}
}

func tagStrings(list []any) []any {
	out := make([]any, 0, len(list))
	for _, item := range list {
		if tag, ok := tagOf(item); ok {
			out = append(out, tag)
		}
	}
	return out
}

func extractCaption(payload any) string {
	obj, _ := payload.(map[string]any)
	for _, candidate := range []any{
		obj["caption"],
		nested(obj, "result", "caption"),
		nested(obj, "data", "caption"),
		obj["description"],
	} {
		if s, ok := candidate.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func nested(obj map[string]any, outer, inner string) any {
	m, ok := obj[outer].(map[string]any)
	if !ok {
		return nil
	}
	return m[inner]
}
