package subscription

import "time"

// Subscription is the entitlement row of a user. Each user has exactly one.
type Subscription struct {
	UserID    int64
	Tier      Tier
	Usage     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Status is the client-facing view of a subscription.
type Status struct {
	Tier      Tier `json:"tier"`
	Usage     int  `json:"usage"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
}

// StatusOf builds a Status; a nil subscription is a free one with no usage.
func StatusOf(sub *Subscription) Status {
	if sub == nil {
		return Status{Tier: TierFree, Limit: FreeLimit, Remaining: FreeLimit}
	}
	limit := sub.Tier.Limit()
	return Status{
		Tier:      sub.Tier,
		Usage:     sub.Usage,
		Limit:     limit,
		Remaining: max(limit-sub.Usage, 0),
	}
}

// Customer is the billing profile of a user.
type Customer struct {
	UserID               int64
	Username             string
	Email                string
	StripeCustomerID     string
	StripeSubscriptionID string
}
