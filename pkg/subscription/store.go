package subscription

import "context"

// Store persists entitlements.
type Store interface {
	// Get returns ErrSubscriptionNotFound when the user has no row.
	Get(ctx context.Context, userID int64) (*Subscription, error)

	// SetTier sets the tier and resets usage to 0, creating the row if needed.
	SetTier(ctx context.Context, userID int64, tier Tier) error

	// IncrementUsage adds one to usage only while usage < limit and returns
	// the new value. It returns ErrUsageExceeded when the ceiling was reached.
	IncrementUsage(ctx context.Context, userID int64, limit int) (int, error)
}

// CustomerStore reads and writes the Stripe identifiers kept on users.
type CustomerStore interface {
	// Customer returns ErrCustomerNotFound for unknown users.
	Customer(ctx context.Context, userID int64) (*Customer, error)

	// UserIDByStripeCustomer returns ErrCustomerNotFound when no user holds id.
	UserIDByStripeCustomer(ctx context.Context, customerID string) (int64, error)

	SetStripeCustomer(ctx context.Context, userID int64, customerID string) error

	// SetStripeSubscription stores both ids; empty values leave the column
	// unchanged.
	SetStripeSubscription(ctx context.Context, userID int64, customerID, subscriptionID string) error
}

// EventStore records processed webhook event ids.
type EventStore interface {
	// MarkProcessed inserts the id and reports false if it was already there.
	MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error)

	// Unmark removes the id so a redelivery is processed again.
	Unmark(ctx context.Context, eventID string) error
}

// Notifier sends subscription emails.
type Notifier interface {
	SubscriptionConfirmed(ctx context.Context, customer Customer, tier Tier) error
}
