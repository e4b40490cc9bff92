// Package subscription keeps per-user entitlements in step with Stripe.
//
// Every user has exactly one Subscription row holding a Tier (free, basic or
// pro) and a usage counter. Tiers are ordered and each carries a usage limit
// (10, 100 and 400 generations). Every tier write resets usage to zero.
//
// # Components
//
//   - Service: checkout, webhook reconciliation, cancellation, manual activation
//   - Provider: the payment provider; StripeProvider wraps stripe-go
//   - Store, CustomerStore, EventStore: persistence, implemented in svc/storage
//   - Notifier: confirmation email after a successful checkout
//   - Metrics: Prometheus counters through PrometheusMetrics
//
// # Webhooks
//
// HandleWebhook verifies the Stripe-Signature header, records the event id
// and dispatches:
//
//   - checkout.session.completed: tier from the line-item price, falling back
//     to metadata; customer and subscription ids are stored
//   - customer.subscription.updated: tier from the first item's price; ended
//     statuses (canceled, unpaid, incomplete_expired) map to free
//   - customer.subscription.deleted: free
//
// A redelivered event id is a no-op. When dispatch fails the id is released
// again so a later delivery can retry it. Unknown users and unmapped prices
// are logged and acknowledged.
//
// # Manual activation
//
// ManualActivate lets the success page apply a checkout before the webhook
// arrives. The session is fetched from Stripe and must be complete, paid and
// owned by the caller; the tier always comes from Stripe, never from the
// client.
package subscription
