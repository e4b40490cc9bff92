package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
)

// StripeConfig holds Stripe credentials and the price id of each paid tier.
type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	PriceBasic    string `env:"STRIPE_PRICE_BASIC"`
	PricePro      string `env:"STRIPE_PRICE_PRO"`
}

// StripeProvider implements Provider on stripe-go.
type StripeProvider struct {
	client        *stripe.Client
	webhookSecret string
	priceToTier   map[string]Tier
	tierToPrice   map[Tier]string
	metrics       Metrics
}

// NewStripeProvider validates cfg and builds a provider. A nil metrics
// disables instrumentation.
func NewStripeProvider(cfg StripeConfig, metrics Metrics) (*StripeProvider, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(cfg.WebhookSecret) == "" {
		return nil, ErrMissingWebhookSecret
	}
	if cfg.PriceBasic == "" || cfg.PricePro == "" {
		return nil, ErrMissingPriceID
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	return &StripeProvider{
		client:        stripe.NewClient(strings.TrimSpace(cfg.SecretKey)),
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		priceToTier: map[string]Tier{
			cfg.PriceBasic: TierBasic,
			cfg.PricePro:   TierPro,
		},
		tierToPrice: map[Tier]string{
			TierBasic: cfg.PriceBasic,
			TierPro:   cfg.PricePro,
		},
		metrics: metrics,
	}, nil
}

// TierForPrice maps a Stripe price id to a tier, or "" when unknown.
func (p *StripeProvider) TierForPrice(priceID string) Tier {
	return p.priceToTier[priceID]
}

func (p *StripeProvider) EnsureCustomer(ctx context.Context, customerID string, c Customer) (string, error) {
	if customerID != "" {
		start := time.Now()
		cust, err := p.client.V1Customers.Retrieve(ctx, customerID, nil)
		p.record("customers.retrieve", err, start)
		switch {
		case err == nil && !cust.Deleted:
			return customerID, nil
		case err != nil && !isResourceMissing(err):
			return "", errors.Join(ErrProviderError, err)
		}
		// missing or deleted at Stripe: create a replacement below
	}

	params := &stripe.CustomerCreateParams{
		Email:    stripe.String(c.Email),
		Metadata: map[string]string{"user_id": strconv.FormatInt(c.UserID, 10)},
	}

	start := time.Now()
	cust, err := p.client.V1Customers.Create(ctx, params)
	p.record("customers.create", err, start)
	if err != nil {
		return "", errors.Join(ErrProviderError, err)
	}
	return cust.ID, nil
}

func (p *StripeProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	priceID, ok := p.tierToPrice[req.Tier]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidTier, req.Tier)
	}

	userID := strconv.FormatInt(req.UserID, 10)
	metadata := map[string]string{
		"user_id": userID,
		"tier":    string(req.Tier),
		"email":   req.Email,
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(userID),
		Metadata:          metadata,
		SubscriptionData: &stripe.CheckoutSessionCreateSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	} else if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	start := time.Now()
	session, err := p.client.V1CheckoutSessions.Create(ctx, params)
	p.record("checkout_sessions.create", err, start)
	if err != nil {
		return "", errors.Join(ErrProviderError, err)
	}
	return session.URL, nil
}

func (p *StripeProvider) RetrieveCheckout(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionRetrieveParams{}
	params.AddExpand("line_items")

	start := time.Now()
	session, err := p.client.V1CheckoutSessions.Retrieve(ctx, sessionID, params)
	p.record("checkout_sessions.retrieve", err, start)
	if err != nil {
		if isResourceMissing(err) {
			return nil, ErrCheckoutNotVerified
		}
		return nil, errors.Join(ErrProviderError, err)
	}
	return p.checkoutFromStripe(session), nil
}

func (p *StripeProvider) RetrieveSubscription(ctx context.Context, subscriptionID string) (*SubscriptionChange, error) {
	start := time.Now()
	sub, err := p.client.V1Subscriptions.Retrieve(ctx, subscriptionID, nil)
	p.record("subscriptions.retrieve", err, start)
	if err != nil {
		if isResourceMissing(err) {
			return nil, ErrCheckoutNotVerified
		}
		return nil, errors.Join(ErrProviderError, err)
	}
	return p.subscriptionFromStripe(sub), nil
}

func (p *StripeProvider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	start := time.Now()
	_, err := p.client.V1Subscriptions.Cancel(ctx, subscriptionID, nil)
	p.record("subscriptions.cancel", err, start)
	if err != nil {
		return errors.Join(ErrProviderError, err)
	}
	return nil
}

func (p *StripeProvider) ParseEvent(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	out := &Event{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}

	switch out.Type {
	case EventCheckoutCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			out.PayloadErr = fmt.Errorf("decode checkout session: %w", err)
			return out, nil
		}
		out.Checkout = p.checkoutFromStripe(&session)

	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			out.PayloadErr = fmt.Errorf("decode subscription: %w", err)
			return out, nil
		}
		out.Subscription = p.subscriptionFromStripe(&sub)
	}

	return out, nil
}

func (p *StripeProvider) checkoutFromStripe(s *stripe.CheckoutSession) *CheckoutSession {
	cs := &CheckoutSession{
		ID:            s.ID,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		UserRef:       s.Metadata["user_id"],
		MetadataTier:  s.Metadata["tier"],
	}
	if cs.UserRef == "" {
		cs.UserRef = s.ClientReferenceID
	}
	if s.Customer != nil {
		cs.CustomerID = s.Customer.ID
	}
	if s.Subscription != nil {
		cs.SubscriptionID = s.Subscription.ID
	}
	if s.LineItems != nil {
		for _, item := range s.LineItems.Data {
			if item != nil && item.Price != nil {
				if tier := p.priceToTier[item.Price.ID]; tier != "" {
					cs.PriceTier = tier
					break
				}
			}
		}
	}
	return cs
}

func (p *StripeProvider) subscriptionFromStripe(s *stripe.Subscription) *SubscriptionChange {
	sc := &SubscriptionChange{
		ID:     s.ID,
		Status: string(s.Status),
	}
	if s.Customer != nil {
		sc.CustomerID = s.Customer.ID
	}
	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
		sc.PriceTier = p.priceToTier[s.Items.Data[0].Price.ID]
	}
	return sc
}

func (p *StripeProvider) record(operation string, err error, start time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.APICall(operation, status, time.Since(start))
}

func isResourceMissing(err error) bool {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == stripe.ErrorCodeResourceMissing || se.HTTPStatusCode == http.StatusNotFound
}
