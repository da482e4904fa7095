// Package ai – Errors
//
// Error types shared by the provider, the service and the responder.
package ai

import (
	"errors"
	"fmt"
)

// ProviderError reports a failed provider call: a non-success HTTP status, a
// transport failure or an empty completion. Status is 0 when no response was
// received.
type ProviderError struct {
	Model  string
	Status int
	Err    error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Status > 0:
		return fmt.Sprintf("ai provider %s: status %d: %v", e.Model, e.Status, e.Err)
	case e.Model != "":
		return fmt.Sprintf("ai provider %s: %v", e.Model, e.Err)
	default:
		return fmt.Sprintf("ai provider: %v", e.Err)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

var (
	errNoToken = errors.New("GITHUB_TOKEN not configured")

	// ErrEmptyCompletion is wrapped when the provider answers without content.
	ErrEmptyCompletion = errors.New("empty completion")

	// ErrNotConfigured is returned by every generation call when no provider
	// credential is set. It is a *ProviderError so callers that fall back on
	// provider failures handle it without a special case.
	ErrNotConfigured error = &ProviderError{Err: errNoToken}
)

// IsProviderError reports whether err is, or wraps, a *ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
