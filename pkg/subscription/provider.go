package subscription

import "context"

// Provider is the payment provider as the service sees it. StripeProvider is
// the production implementation.
type Provider interface {
	// EnsureCustomer returns customerID when it still exists at the
	// provider, or creates a new customer and returns its id.
	EnsureCustomer(ctx context.Context, customerID string, c Customer) (string, error)

	// CreateCheckout starts a hosted subscription checkout and returns its URL.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)

	// RetrieveCheckout loads a checkout session with its line items.
	RetrieveCheckout(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// RetrieveSubscription loads the current state of a provider subscription.
	RetrieveSubscription(ctx context.Context, subscriptionID string) (*SubscriptionChange, error)

	// CancelSubscription cancels a provider subscription immediately.
	CancelSubscription(ctx context.Context, subscriptionID string) error

	// ParseEvent verifies the signature and normalizes the event. It returns
	// ErrInvalidSignature when verification fails.
	ParseEvent(payload []byte, signature string) (*Event, error)
}

// CheckoutRequest contains data needed to create a checkout session.
type CheckoutRequest struct {
	CustomerID string
	UserID     int64
	Email      string
	Tier       Tier
	SuccessURL string
	CancelURL  string
}

// CheckoutURLs are the redirect targets of a hosted checkout.
type CheckoutURLs struct {
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is a provider checkout reduced to what reconciliation needs.
type CheckoutSession struct {
	ID             string
	Status         string // open, complete, expired
	PaymentStatus  string // paid, unpaid, no_payment_required
	UserRef        string // metadata user_id, else client_reference_id
	MetadataTier   string
	PriceTier      Tier // empty when the line-item price is unknown or absent
	CustomerID     string
	SubscriptionID string
}

// Completed reports whether the session has been paid for.
func (c *CheckoutSession) Completed() bool {
	return c.Status == "complete" && (c.PaymentStatus == "paid" || c.PaymentStatus == "no_payment_required")
}

// SubscriptionChange is the payload of customer.subscription.* events.
type SubscriptionChange struct {
	ID         string
	CustomerID string
	Status     string
	PriceTier  Tier
}

// Event types handled by the service.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Event is a verified provider webhook event. Exactly one of Checkout and
// Subscription is set for handled types; both are nil otherwise.
type Event struct {
	ID           string
	Type         string
	Checkout     *CheckoutSession
	Subscription *SubscriptionChange
	// PayloadErr is set when the signature verified but data.object could
	// not be decoded. Redelivery would not fix it.
	PayloadErr error `json:"-"`
}
