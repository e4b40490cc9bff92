package subscription

import "errors"

var (
	ErrInvalidTier          = errors.New("invalid subscription tier")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrCustomerNotFound     = errors.New("billing customer not found")
	ErrUsageExceeded        = errors.New("usage limit exceeded")
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrCheckoutNotVerified  = errors.New("checkout session could not be verified")
	ErrUnknownPrice         = errors.New("price is not mapped to a tier")
	ErrProviderError        = errors.New("subscription provider error")

	ErrMissingAPIKey        = errors.New("stripe API key is required")
	ErrMissingWebhookSecret = errors.New("stripe webhook secret is required")
	ErrMissingPriceID       = errors.New("stripe price id is required for every paid tier")
)
