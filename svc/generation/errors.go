package generation

import (
	"errors"
	"fmt"
)

var (
	ErrUpstreamTimeout = errors.New("generation timed out")
	ErrUpstreamFailure = errors.New("generation failed")
)

// Capability errors
var (
	ErrMalformedOutput = errors.New("model returned malformed output")
	ErrRateLimited     = errors.New("model provider rate limit reached")
	ErrMissingAPIKey   = errors.New("openai api key is required")
)

// MissingFieldError reports the first required field absent from a request.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}
