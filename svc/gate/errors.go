package gate

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/replykit/pkg/subscription"
)

var (
	ErrUnknownTone     = errors.New("unknown tone")
	ErrUnauthenticated = errors.New("authentication required")

	// ErrUsageExceeded is subscription.ErrUsageExceeded so store and gate
	// failures match the same errors.Is check.
	ErrUsageExceeded = subscription.ErrUsageExceeded
)

// InsufficientTierError is returned when a capability needs a higher tier.
type InsufficientTierError struct {
	Required subscription.Tier
}

func (e *InsufficientTierError) Error() string {
	return fmt.Sprintf("this feature requires the %s plan", e.Required.Title())
}
