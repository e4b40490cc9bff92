package subscription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/dmitrymomot/replykit/pkg/logger"
)

// Service defines the public interface for subscription management.
type Service interface {
	// Get returns the user's tier and usage. A missing row reads as free.
	Get(ctx context.Context, userID int64) (Status, error)

	// StartCheckout creates a hosted checkout for a paid tier and returns
	// its URL. Entitlements are untouched until the payment is confirmed.
	StartCheckout(ctx context.Context, userID int64, tier Tier, urls CheckoutURLs) (string, error)

	// HandleWebhook verifies and applies a provider event. Replays are no-ops.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error

	// Cancel downgrades the user to free immediately.
	Cancel(ctx context.Context, userID int64) (Status, error)

	// ManualActivate applies a completed checkout session the webhook has not
	// delivered yet. claimed, when valid, is only compared against the
	// verified tier.
	ManualActivate(ctx context.Context, userID int64, sessionID string, claimed Tier) (Status, error)
}

type service struct {
	provider  Provider
	store     Store
	customers CustomerStore
	events    EventStore
	notifier  Notifier
	metrics   Metrics
	logger    *slog.Logger
}

type ServiceOption func(*service)

// WithNotifier sets the mailer used for confirmation emails.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *service) {
		s.notifier = n
	}
}

func WithMetrics(m Metrics) ServiceOption {
	return func(s *service) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a subscription service. It panics on nil dependencies
// so misconfiguration fails at startup.
func NewService(provider Provider, store Store, customers CustomerStore, events EventStore, opts ...ServiceOption) Service {
	if provider == nil {
		panic("subscription: Provider is required")
	}
	if store == nil {
		panic("subscription: Store is required")
	}
	if customers == nil {
		panic("subscription: CustomerStore is required")
	}
	if events == nil {
		panic("subscription: EventStore is required")
	}

	s := &service{
		provider:  provider,
		store:     store,
		customers: customers,
		events:    events,
		metrics:   NoopMetrics{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Get(ctx context.Context, userID int64) (Status, error) {
	sub, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrSubscriptionNotFound) {
		return StatusOf(nil), nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("failed to load subscription: %w", err)
	}
	return StatusOf(sub), nil
}

func (s *service) StartCheckout(ctx context.Context, userID int64, tier Tier, urls CheckoutURLs) (string, error) {
	if !tier.Paid() {
		return "", fmt.Errorf("%w: %q is not purchasable", ErrInvalidTier, tier)
	}

	customer, err := s.customers.Customer(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load billing profile: %w", err)
	}

	customerID, err := s.provider.EnsureCustomer(ctx, customer.StripeCustomerID, *customer)
	if err != nil {
		return "", err
	}
	if customerID != customer.StripeCustomerID {
		if err := s.customers.SetStripeCustomer(ctx, userID, customerID); err != nil {
			return "", fmt.Errorf("failed to save stripe customer: %w", err)
		}
	}

	url, err := s.provider.CreateCheckout(ctx, CheckoutRequest{
		CustomerID: customerID,
		UserID:     userID,
		Email:      customer.Email,
		Tier:       tier,
		SuccessURL: urls.SuccessURL,
		CancelURL:  urls.CancelURL,
	})
	if err != nil {
		return "", err
	}

	s.metrics.CheckoutStarted(tier)
	return url, nil
}

func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseEvent(payload, signature)
	if err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			s.metrics.WebhookEvent("unknown", "invalid_signature")
		}
		return err
	}

	log := s.logger.With(logger.EventID(event.ID), logger.EventType(event.Type))

	fresh, err := s.events.MarkProcessed(ctx, event.ID, event.Type)
	if err != nil {
		s.metrics.WebhookEvent(event.Type, "error")
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	if !fresh {
		log.DebugContext(ctx, "duplicate webhook event skipped")
		s.metrics.WebhookEvent(event.Type, "duplicate")
		return nil
	}

	outcome, err := s.dispatch(ctx, event)
	if err != nil {
		if uerr := s.events.Unmark(ctx, event.ID); uerr != nil {
			log.ErrorContext(ctx, "failed to unmark webhook event", logger.Error(uerr))
		}
		s.metrics.WebhookEvent(event.Type, "error")
		return err
	}

	s.metrics.WebhookEvent(event.Type, outcome)
	return nil
}

// dispatch applies an event. Application-level misses (unknown user or
// price, undecodable payload) are logged and reported as "ignored"; only
// store failures return an error.
func (s *service) dispatch(ctx context.Context, event *Event) (string, error) {
	log := s.logger.With(logger.EventID(event.ID), logger.EventType(event.Type))

	if event.PayloadErr != nil {
		log.WarnContext(ctx, "webhook event payload could not be decoded", logger.Error(event.PayloadErr))
		return "ignored", nil
	}

	switch {
	case event.Type == EventCheckoutCompleted && event.Checkout != nil:
		return s.applyCheckout(ctx, log, event.Checkout)

	case event.Type == EventSubscriptionUpdated && event.Subscription != nil:
		return s.applySubscriptionChange(ctx, log, event.Subscription, false)

	case event.Type == EventSubscriptionDeleted && event.Subscription != nil:
		return s.applySubscriptionChange(ctx, log, event.Subscription, true)
	}

	return "ignored", nil
}

func (s *service) applyCheckout(ctx context.Context, log *slog.Logger, cs *CheckoutSession) (string, error) {
	userID, err := strconv.ParseInt(cs.UserRef, 10, 64)
	if err != nil {
		log.WarnContext(ctx, "checkout session has no usable user reference", slog.String("session_id", cs.ID))
		return "ignored", nil
	}
	log = log.With(logger.UserID(userID))

	// Webhook payloads carry no line items; the expanded session does.
	if cs.PriceTier == "" {
		if full, err := s.provider.RetrieveCheckout(ctx, cs.ID); err == nil {
			cs.PriceTier = full.PriceTier
		} else {
			log.WarnContext(ctx, "failed to expand checkout line items", logger.Error(err))
		}
	}

	tier, err := checkoutTier(cs)
	if err != nil {
		log.WarnContext(ctx, "checkout session tier could not be resolved", logger.Error(err))
		return "ignored", nil
	}

	customer, err := s.customers.Customer(ctx, userID)
	if errors.Is(err, ErrCustomerNotFound) {
		log.WarnContext(ctx, "checkout session references unknown user")
		return "ignored", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load billing profile: %w", err)
	}

	fresh, err := s.claimCheckout(ctx, cs.ID)
	if err != nil {
		return "", err
	}
	if !fresh {
		log.InfoContext(ctx, "checkout session already applied", slog.String("session_id", cs.ID))
		return "duplicate", nil
	}
	if err := s.activate(ctx, userID, tier, cs, "webhook"); err != nil {
		return "", err
	}

	log.InfoContext(ctx, "subscription activated from checkout", logger.Tier(string(tier)))
	s.notifyConfirmed(ctx, log, *customer, tier)
	return "processed", nil
}

func (s *service) applySubscriptionChange(ctx context.Context, log *slog.Logger, sc *SubscriptionChange, deleted bool) (string, error) {
	userID, err := s.customers.UserIDByStripeCustomer(ctx, sc.CustomerID)
	if errors.Is(err, ErrCustomerNotFound) {
		log.WarnContext(ctx, "subscription event for unknown customer", slog.String("customer_id", sc.CustomerID))
		return "ignored", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve stripe customer: %w", err)
	}
	log = log.With(logger.UserID(userID))

	tier := TierFree
	if !deleted && !endedStatus(sc.Status) {
		if sc.PriceTier == "" {
			log.WarnContext(ctx, "subscription price is not mapped to a tier")
			return "ignored", nil
		}
		tier = sc.PriceTier
	}

	if err := s.setTier(ctx, userID, tier, "webhook"); err != nil {
		return "", err
	}
	log.InfoContext(ctx, "subscription tier synchronized", logger.Tier(string(tier)), slog.String("status", sc.Status))
	return "processed", nil
}

func (s *service) Cancel(ctx context.Context, userID int64) (Status, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	if current.Tier == TierFree {
		return Status{}, ErrNoActiveSubscription
	}

	if err := s.setTier(ctx, userID, TierFree, "cancel"); err != nil {
		return Status{}, err
	}

	log := s.logger.With(logger.UserID(userID))
	if customer, err := s.customers.Customer(ctx, userID); err != nil {
		log.WarnContext(ctx, "failed to load billing profile for cancellation", logger.Error(err))
	} else if customer.StripeSubscriptionID != "" {
		if err := s.provider.CancelSubscription(ctx, customer.StripeSubscriptionID); err != nil {
			log.ErrorContext(ctx, "failed to cancel stripe subscription", logger.Error(err))
		}
	}

	log.InfoContext(ctx, "subscription cancelled", logger.Tier(string(current.Tier)))
	return StatusOf(&Subscription{UserID: userID, Tier: TierFree}), nil
}

func (s *service) ManualActivate(ctx context.Context, userID int64, sessionID string, claimed Tier) (Status, error) {
	if sessionID == "" {
		return Status{}, ErrCheckoutNotVerified
	}

	cs, err := s.provider.RetrieveCheckout(ctx, sessionID)
	if err != nil {
		return Status{}, err
	}
	if !cs.Completed() || cs.UserRef != strconv.FormatInt(userID, 10) {
		return Status{}, ErrCheckoutNotVerified
	}

	tier, err := checkoutTier(cs)
	if err != nil {
		return Status{}, err
	}

	log := s.logger.With(logger.UserID(userID), logger.Tier(string(tier)))
	if claimed != "" && claimed != tier {
		log.WarnContext(ctx, "claimed tier differs from verified checkout", slog.String("claimed", string(claimed)))
	}

	// A completed session outlives its subscription; only a live one grants a tier.
	if cs.SubscriptionID == "" {
		return Status{}, ErrCheckoutNotVerified
	}
	sub, err := s.provider.RetrieveSubscription(ctx, cs.SubscriptionID)
	if err != nil {
		return Status{}, err
	}
	if endedStatus(sub.Status) {
		log.WarnContext(ctx, "checkout subscription is no longer active",
			slog.String("session_id", cs.ID),
			slog.String("status", sub.Status),
		)
		return Status{}, ErrCheckoutNotVerified
	}

	fresh, err := s.claimCheckout(ctx, cs.ID)
	if err != nil {
		return Status{}, err
	}
	if !fresh {
		log.InfoContext(ctx, "checkout session already applied", slog.String("session_id", cs.ID))
		return s.Get(ctx, userID)
	}
	if err := s.activate(ctx, userID, tier, cs, "manual_activate"); err != nil {
		return Status{}, err
	}

	log.InfoContext(ctx, "subscription activated manually")
	return StatusOf(&Subscription{UserID: userID, Tier: tier}), nil
}

// claimCheckout records that a checkout session is being applied and
// reports false when it already was. The id shares the webhook event table
// under a "checkout:" prefix.
func (s *service) claimCheckout(ctx context.Context, sessionID string) (bool, error) {
	fresh, err := s.events.MarkProcessed(ctx, checkoutKey(sessionID), EventCheckoutCompleted)
	if err != nil {
		return false, fmt.Errorf("failed to record checkout session: %w", err)
	}
	return fresh, nil
}

// activate grants the checkout's tier. On failure the checkout claim is
// released so a retry can apply it.
func (s *service) activate(ctx context.Context, userID int64, tier Tier, cs *CheckoutSession, source string) error {
	err := s.setTier(ctx, userID, tier, source)
	if err == nil {
		if serr := s.customers.SetStripeSubscription(ctx, userID, cs.CustomerID, cs.SubscriptionID); serr != nil {
			err = fmt.Errorf("failed to save stripe subscription: %w", serr)
		}
	}
	if err != nil {
		if uerr := s.events.Unmark(ctx, checkoutKey(cs.ID)); uerr != nil {
			s.logger.ErrorContext(ctx, "failed to release checkout session", logger.Error(uerr))
		}
		return err
	}
	return nil
}

func checkoutKey(sessionID string) string {
	return "checkout:" + sessionID
}

func (s *service) setTier(ctx context.Context, userID int64, tier Tier, source string) error {
	from := TierFree
	if sub, err := s.store.Get(ctx, userID); err == nil {
		from = sub.Tier
	}

	if err := s.store.SetTier(ctx, userID, tier); err != nil {
		return fmt.Errorf("failed to set tier: %w", err)
	}
	s.metrics.TierChange(from, tier, source)
	return nil
}

func (s *service) notifyConfirmed(ctx context.Context, log *slog.Logger, customer Customer, tier Tier) {
	if s.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.notifier.SubscriptionConfirmed(ctx, customer, tier); err != nil {
		log.WarnContext(ctx, "failed to send subscription confirmation", logger.Error(err))
	}
}

// checkoutTier picks the tier of a checkout: the line-item price when it is
// mapped, otherwise the tier recorded in metadata.
func checkoutTier(cs *CheckoutSession) (Tier, error) {
	if cs.PriceTier.Paid() {
		return cs.PriceTier, nil
	}
	tier, err := ParseTier(cs.MetadataTier)
	if err != nil || !tier.Paid() {
		return "", fmt.Errorf("%w: session %s", ErrInvalidTier, cs.ID)
	}
	return tier, nil
}

// endedStatus reports Stripe subscription statuses that no longer grant a
// paid tier.
func endedStatus(status string) bool {
	switch status {
	case "canceled", "unpaid", "incomplete_expired":
		return true
	}
	return false
}
