package api

import (
	"strings"

	"github.com/dmitrymomot/replykit/handler"
	"github.com/dmitrymomot/replykit/pkg/subscription"
	"github.com/dmitrymomot/replykit/pkg/validator"
)

type createSubscriptionRequest struct {
	Tier string `json:"tier"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

type activateSubscriptionRequest struct {
	SessionID string `json:"sessionId"`
	Tier      string `json:"tier"`
}

type webhookRequest struct {
	Signature string `header:"Stripe-Signature"`
	Payload   []byte `body:"raw"`
}

type webhookResponse struct {
	Received bool `json:"received"`
}

func (a *API) subscription(ctx handler.Context, _ struct{}) handler.Response {
	status, err := a.subscriptions.Get(ctx, currentUser(ctx).ID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(status)
}

func (a *API) createSubscription(ctx handler.Context, req createSubscriptionRequest) handler.Response {
	if err := validator.Apply(validator.Required("tier", req.Tier)); err != nil {
		return handler.Error(err)
	}
	tier, err := subscription.ParseTier(req.Tier)
	if err != nil {
		return handler.Error(err)
	}

	user := currentUser(ctx)
	url, err := a.subscriptions.StartCheckout(ctx, user.ID, tier, subscription.CheckoutURLs{
		SuccessURL: a.baseURL + "/subscription/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  a.baseURL + "/subscription",
	})
	if err != nil {
		return handler.Error(err)
	}

	a.track(ctx, "checkout_started", map[string]any{"tier": string(tier)})
	return handler.JSON(checkoutResponse{URL: url})
}

func (a *API) cancelSubscription(ctx handler.Context, _ struct{}) handler.Response {
	status, err := a.subscriptions.Cancel(ctx, currentUser(ctx).ID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(status)
}

// activateSubscription applies a checkout the webhook has not confirmed yet.
// The tier in the body is checked for shape only; the checkout decides.
func (a *API) activateSubscription(ctx handler.Context, req activateSubscriptionRequest) handler.Response {
	sessionID := strings.TrimSpace(req.SessionID)
	if err := validator.Apply(validator.Required("sessionId", sessionID)); err != nil {
		return handler.Error(err)
	}

	var claimed subscription.Tier
	if req.Tier != "" {
		tier, err := subscription.ParseTier(req.Tier)
		if err != nil {
			return handler.Error(err)
		}
		claimed = tier
	}

	status, err := a.subscriptions.ManualActivate(ctx, currentUser(ctx).ID, sessionID, claimed)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(status)
}

// webhook acknowledges every verified event it could apply. Storage failures
// answer 500 so the provider redelivers.
func (a *API) webhook(ctx handler.Context, req webhookRequest) handler.Response {
	if err := a.subscriptions.HandleWebhook(ctx, req.Payload, req.Signature); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(webhookResponse{Received: true})
}
