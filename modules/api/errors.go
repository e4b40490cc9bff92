package api

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/replykit/handler"
	"github.com/dmitrymomot/replykit/pkg/binder"
	"github.com/dmitrymomot/replykit/pkg/eventlog"
	"github.com/dmitrymomot/replykit/pkg/subscription"
	"github.com/dmitrymomot/replykit/pkg/validator"
	"github.com/dmitrymomot/replykit/svc/account"
	"github.com/dmitrymomot/replykit/svc/gate"
	"github.com/dmitrymomot/replykit/svc/generation"
)

var (
	errUnauthenticated = handler.NewHTTPError(http.StatusUnauthorized, "unauthenticated").
		WithMessage("Authentication required")
	errUsageExceeded = handler.NewHTTPError(http.StatusTooManyRequests, "usage_exceeded").
		WithMessage("Usage limit reached, upgrade your plan to continue")
)

// sentinels maps domain errors to their HTTP rendering. Order matters only
// for errors that wrap several sentinels; the first match wins.
var sentinels = []struct {
	err      error
	rendered handler.HTTPError
}{
	{gate.ErrUnauthenticated, errUnauthenticated},
	{account.ErrDuplicateUsername, handler.NewHTTPError(http.StatusBadRequest, "duplicate_username").
		WithMessage("Username already registered")},
	{account.ErrInvalidCredentials, handler.NewHTTPError(http.StatusUnauthorized, "invalid_credentials").
		WithMessage("Invalid username or password")},
	{account.ErrInvalidOrExpiredToken, handler.NewHTTPError(http.StatusBadRequest, "invalid_token").
		WithMessage("Invalid or expired token")},
	{account.ErrInvalidToken, handler.NewHTTPError(http.StatusBadRequest, "invalid_token").
		WithMessage("Invalid or expired token")},
	{account.ErrAlreadyVerified, handler.NewHTTPError(http.StatusBadRequest, "already_verified").
		WithMessage("Email already verified")},
	{account.ErrEmailDeliveryFailed, handler.NewHTTPError(http.StatusInternalServerError, "email_delivery_failed").
		WithMessage("We could not send the email, please try again")},
	{subscription.ErrInvalidSignature, handler.NewHTTPError(http.StatusBadRequest, "invalid_signature").
		WithMessage("Webhook signature verification failed")},
	{subscription.ErrNoActiveSubscription, handler.NewHTTPError(http.StatusBadRequest, "no_active_subscription").
		WithMessage("No active subscription to cancel")},
	{subscription.ErrCheckoutNotVerified, handler.NewHTTPError(http.StatusForbidden, "checkout_not_verified").
		WithMessage("Checkout session could not be verified")},
	{subscription.ErrInvalidTier, handler.NewHTTPError(http.StatusBadRequest, "invalid_tier").
		WithMessage("Invalid subscription tier")},
	{subscription.ErrUsageExceeded, errUsageExceeded},
	{gate.ErrUnknownTone, handler.NewHTTPError(http.StatusBadRequest, "unknown_tone").
		WithMessage("Unknown tone")},
	{generation.ErrUpstreamTimeout, handler.NewHTTPError(http.StatusGatewayTimeout, "upstream_timeout").
		WithMessage("Reply generation timed out, please try again")},
	{generation.ErrUpstreamFailure, handler.NewHTTPError(http.StatusBadGateway, "upstream_failure").
		WithMessage("Reply generation failed, please try again")},
	{subscription.ErrProviderError, handler.NewHTTPError(http.StatusBadGateway, "upstream_failure").
		WithMessage("Payment provider request failed, please try again")},
}

// mapError translates domain errors into handler.HTTPError or
// handler.ValidationError. Unknown errors pass through and render as 500.
func mapError(err error) error {
	var tierErr *gate.InsufficientTierError
	if errors.As(err, &tierErr) {
		return handler.NewHTTPError(http.StatusForbidden, "insufficient_tier").
			WithMessage(tierErr.Error()).
			WithMeta(map[string]any{"required_tier": tierErr.Required})
	}

	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
		return handler.ValidationError(verrs.Fields())
	}

	var missing *generation.MissingFieldError
	if errors.As(err, &missing) {
		ve := handler.NewValidationError()
		ve.Add(missing.Field, "is required")
		return ve
	}

	if errors.Is(err, eventlog.ErrEventValidation) {
		ve := handler.NewValidationError()
		ve.Add("event", err.Error())
		return ve
	}

	if errors.Is(err, binder.ErrBodyTooLarge) {
		return handler.ErrRequestTooLarge.WithMessage("Request body too large")
	}
	if isBinderError(err) {
		ve := handler.NewValidationError()
		ve.Add("body", err.Error())
		return ve
	}

	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.rendered
		}
	}
	return err
}

func isBinderError(err error) bool {
	for _, target := range []error{
		binder.ErrFailedToParseJSON,
		binder.ErrMissingContentType,
		binder.ErrUnsupportedMediaType,
		binder.ErrFailedToReadBody,
		binder.ErrInvalidPath,
		binder.ErrInvalidHeader,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
