package api

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dmitrymomot/replykit/handler"
	"github.com/dmitrymomot/replykit/pkg/clientip"
	"github.com/dmitrymomot/replykit/pkg/logger"
	"github.com/dmitrymomot/replykit/pkg/subscription"
	"github.com/dmitrymomot/replykit/svc/gate"
	"github.com/dmitrymomot/replykit/svc/generation"
)

const anonNamespace = "anon"

// anonKey is empty when metering does not apply: signed-in callers, no
// limiter configured or no resolvable client IP.
func (a *API) anonKey(ctx context.Context, ident gate.Identity) string {
	if a.anonLimiter == nil || ident.Authenticated() {
		return ""
	}
	ip := clientip.FromContext(ctx)
	if ip == "" {
		return ""
	}
	return anonNamespace + ":" + ip
}

// checkAnonQuota refuses an anonymous caller whose daily bucket is empty.
// It takes no token; spendAnonQuota does that once a reply was delivered.
func (a *API) checkAnonQuota(ctx handler.Context, ident gate.Identity) error {
	key := a.anonKey(ctx, ident)
	if key == "" {
		return nil
	}

	res, err := a.anonLimiter.Status(ctx, key)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to read anonymous quota", logger.Error(err))
		return handler.ErrServiceUnavailable
	}

	h := ctx.ResponseWriter().Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, res.Remaining)))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

	if res.Remaining <= 0 {
		if retryAfter := int(time.Until(res.ResetAt).Seconds()); retryAfter > 0 {
			h.Set("Retry-After", strconv.Itoa(retryAfter))
		}
		return errUsageExceeded
	}
	return nil
}

func (a *API) spendAnonQuota(ctx context.Context, ident gate.Identity) {
	key := a.anonKey(ctx, ident)
	if key == "" {
		return
	}
	if _, err := a.anonLimiter.Allow(ctx, key); err != nil {
		a.logger.ErrorContext(ctx, "failed to meter anonymous generation", logger.Error(err))
	}
}

// meter charges a delivered generation to the caller: the plan for signed-in
// users and the per-IP bucket otherwise. Fallback replies are free.
func (a *API) meter(ctx context.Context, t gate.Ticket, res *generation.Result) *subscription.Status {
	if res.Fallback {
		if !t.Identity.Authenticated() {
			return nil
		}
		status := subscription.StatusOf(&subscription.Subscription{Tier: t.Identity.Tier, Usage: t.Identity.Usage})
		return &status
	}
	if !t.Identity.Authenticated() {
		a.spendAnonQuota(ctx, t.Identity)
		return nil
	}
	return a.charge(ctx, t)
}

// charge meters a delivered generation against the plan. The result is
// returned to the caller even when the charge fails, so errors are only
// logged here.
func (a *API) charge(ctx context.Context, t gate.Ticket) *subscription.Status {
	usage, err := a.gate.Charge(ctx, t)
	switch {
	case errors.Is(err, subscription.ErrUsageExceeded):
		usage = t.Limit
	case err != nil:
		a.logger.ErrorContext(ctx, "failed to charge generation",
			logger.UserID(t.Identity.UserID),
			logger.Error(err),
		)
		usage = t.Identity.Usage
	}

	status := subscription.StatusOf(&subscription.Subscription{Tier: t.Identity.Tier, Usage: usage})
	return &status
}
