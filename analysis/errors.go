package analysis

import (
	"errors"
	"fmt"
)

// ErrConfig matches every ConfigError.
var ErrConfig = errors.New("analysis: missing configuration")

// ConfigError reports a setting a provider or the dispatcher needs but
// does not have.
type ConfigError struct {
	Setting string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("analysis: %s is not set", e.Setting)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// ProviderError is returned when an analysis provider cannot produce a
// result: the request failed in transit or the vendor answered non-2xx.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("analysis: %s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("analysis: %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// UpstreamError wraps failures of the collaborators around a provider call:
// signing the image URL or handing the job to the external function.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("analysis: %s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("analysis: %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
