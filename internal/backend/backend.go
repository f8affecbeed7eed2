// Package backend abstracts the text-generation service behind a
// Generator interface with startup validation.
package backend

import (
	"context"
	"errors"
)

// Sentinel errors for backend validation.
var (
	ErrBackendUnavailable = errors.New("generation backend unavailable")
	ErrModelNotFound      = errors.New("model not found")
)

// Generator produces text from a prompt. Implementations own their own
// HTTP plumbing and timeouts.
type Generator interface {
	// Name identifies the backend for health reporting.
	Name() string
	// Model returns the configured model identifier.
	Model() string
	// Validate checks the backend is reachable and the configured model
	// is available. Called once at process startup; failure is fatal.
	Validate(ctx context.Context) error
	// Generate produces text for prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}
