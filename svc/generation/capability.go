package generation

import "context"

// Prompt is what a Capability is asked to produce replies for.
type Prompt struct {
	Mode   Mode
	Text   string
	Tone   string
	Intent string
}

// Capability produces candidate texts for a prompt. Implementations return
// ErrMalformedOutput when the model answer cannot be parsed and
// ErrRateLimited when the provider throttles.
type Capability interface {
	Generate(ctx context.Context, p Prompt) ([]string, error)
}

// CapabilityFunc adapts a function to Capability.
type CapabilityFunc func(ctx context.Context, p Prompt) ([]string, error)

func (f CapabilityFunc) Generate(ctx context.Context, p Prompt) ([]string, error) {
	return f(ctx, p)
}
