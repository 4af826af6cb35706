// Package analysis turns an uploaded image into AI metadata: a provider
// describes the image, Normalize coerces the answer and the Orchestrator
// drives the metadata row from processing to completed or failed.
package analysis

// Result is the normalized outcome of one analysis. Raw keeps whatever the
// provider returned and is never persisted.
type Result struct {
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	Colors      []string `json:"colors"`
	Raw         any      `json:"raw,omitempty"`
}
