package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Dispatcher hands an analysis job to an external function that owns the
// rest of the job, including the final metadata write.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job) error
}

// Job is the body posted to the external analysis function. ImageURL is
// omitted when the image could not be signed.
type Job struct {
	ImageID      uint   `json:"imageId"`
	UserID       string `json:"userId"`
	OriginalPath string `json:"originalPath"`
	ExpiresIn    int    `json:"expiresIn"`
	ImageURL     string `json:"imageUrl,omitempty"`
}

// FunctionDispatcher posts jobs to an HTTP function authenticated with a
// bearer key.
type FunctionDispatcher struct {
	httpClient *http.Client
	url        string
	anonKey    string
}

func NewFunctionDispatcher(url, anonKey string, client *http.Client) *FunctionDispatcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &FunctionDispatcher{httpClient: client, url: url, anonKey: anonKey}
}

func (d *FunctionDispatcher) Dispatch(ctx context.Context, job Job) error {
	if d.url == "" {
		return &ConfigError{Setting: "ANALYZE_FUNCTION_URL or FUNCTIONS_URL"}
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("analysis: dispatch: encode job: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("analysis: dispatch: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.anonKey)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{Op: "dispatch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{Op: "dispatch", StatusCode: resp.StatusCode}
	}
	return nil
}
