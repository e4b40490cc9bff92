package subscription

import "time"

// Metrics records billing activity. All methods must be safe for concurrent
// use.
type Metrics interface {
	// WebhookEvent counts a webhook by type and outcome: processed, duplicate,
	// ignored, invalid_signature or error.
	WebhookEvent(eventType, outcome string)

	// TierChange counts an entitlement change; source names the path that
	// made it (webhook, cancel, manual_activate).
	TierChange(from, to Tier, source string)

	// CheckoutStarted counts created checkout sessions.
	CheckoutStarted(tier Tier)

	// APICall records a provider call and its latency.
	APICall(operation, status string, d time.Duration)
}

// NoopMetrics is a no-op implementation of the Metrics interface.
type NoopMetrics struct{}

func (NoopMetrics) WebhookEvent(_, _ string)             {}
func (NoopMetrics) TierChange(_, _ Tier, _ string)       {}
func (NoopMetrics) CheckoutStarted(_ Tier)               {}
func (NoopMetrics) APICall(_, _ string, _ time.Duration) {}
