package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/replykit/handler"
	"github.com/dmitrymomot/replykit/pkg/binder"
	"github.com/dmitrymomot/replykit/pkg/clientip"
	"github.com/dmitrymomot/replykit/pkg/eventlog"
	"github.com/dmitrymomot/replykit/pkg/ratelimiter"
	"github.com/dmitrymomot/replykit/pkg/session"
	"github.com/dmitrymomot/replykit/pkg/subscription"
	"github.com/dmitrymomot/replykit/svc/account"
	"github.com/dmitrymomot/replykit/svc/gate"
	"github.com/dmitrymomot/replykit/svc/generation"
)

// Options wires the API to its services. Limiters and ClientIP are optional.
type Options struct {
	Accounts      account.Service
	Sessions      *session.Manager
	Subscriptions subscription.Service
	Gate          *gate.Gate
	Generator     *generation.Facade
	Events        *eventlog.Logger

	// AnonLimiter meters anonymous generation per client IP.
	AnonLimiter *ratelimiter.Bucket
	// AuthLimiter throttles login, registration and reset requests per IP.
	AuthLimiter *ratelimiter.Bucket
	ClientIP    *clientip.Resolver

	// BaseURL is the public origin used for checkout redirects.
	BaseURL string
	Logger  *slog.Logger
}

// API serves the JSON endpoints under /api.
type API struct {
	accounts      account.Service
	sessions      *session.Manager
	subscriptions subscription.Service
	gate          *gate.Gate
	generator     *generation.Facade
	events        *eventlog.Logger
	anonLimiter   *ratelimiter.Bucket
	authLimiter   *ratelimiter.Bucket
	clientIP      *clientip.Resolver
	baseURL       string
	logger        *slog.Logger
	errorHandler  handler.ErrorHandler[handler.Context]
}

// New creates the API. It panics when a required service is missing.
func New(opts Options) *API {
	switch {
	case opts.Accounts == nil:
		panic("api: Accounts is required")
	case opts.Sessions == nil:
		panic("api: Sessions is required")
	case opts.Subscriptions == nil:
		panic("api: Subscriptions is required")
	case opts.Gate == nil:
		panic("api: Gate is required")
	case opts.Generator == nil:
		panic("api: Generator is required")
	case opts.Events == nil:
		panic("api: Events is required")
	}

	a := &API{
		accounts:      opts.Accounts,
		sessions:      opts.Sessions,
		subscriptions: opts.Subscriptions,
		gate:          opts.Gate,
		generator:     opts.Generator,
		events:        opts.Events,
		anonLimiter:   opts.AnonLimiter,
		authLimiter:   opts.AuthLimiter,
		clientIP:      opts.ClientIP,
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		logger:        opts.Logger,
	}
	if a.clientIP == nil {
		a.clientIP = clientip.NewResolver()
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a.errorHandler = handler.NewErrorHandler(a.logger, mapError)
	return a
}

// Handle returns the router; mount it at /api.
func (a *API) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(a.clientIP.Middleware, a.sessions.Middleware, a.identify)

	authLimit := a.limit(a.authLimiter, "auth")

	// Accounts
	r.With(authLimit).Post("/register", route(a.errorHandler, a.register, binder.JSON()))
	r.With(authLimit).Post("/login", route(a.errorHandler, a.login, binder.JSON()))
	r.Post("/logout", route[struct{}](a.errorHandler, a.logout))
	r.With(authLimit).Post("/forgot-password", route(a.errorHandler, a.forgotPassword, binder.JSON()))
	r.Post("/reset-password", route(a.errorHandler, a.resetPassword, binder.JSON()))
	r.Get("/verify-email/{token}", route(a.errorHandler, a.verifyEmail, binder.Path(chi.URLParam)))

	// Generation
	r.Post("/generate-replies", route(a.errorHandler, a.generateReplies, binder.JSON()))
	r.Get("/tones", route[struct{}](a.errorHandler, a.tones))

	// Analytics and payment provider callbacks
	r.Post("/log-event", route(a.errorHandler, a.logEvent, binder.JSON()))
	r.Post("/webhook", route(a.errorHandler, a.webhook,
		binder.Header(),
		binder.Raw(binder.DefaultMaxRawSize),
	))

	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Get("/user", route[struct{}](a.errorHandler, a.currentUser))
		r.Post("/resend-verification", route[struct{}](a.errorHandler, a.resendVerification))

		r.Post("/conversation-starters", route(a.errorHandler, a.conversationStarters, binder.JSON()))
		r.Post("/message-coach", route(a.errorHandler, a.messageCoach, binder.JSON()))
		r.Post("/message-decoder", route(a.errorHandler, a.messageDecoder, binder.JSON()))

		r.Get("/subscription", route[struct{}](a.errorHandler, a.subscription))
		r.Post("/create-subscription", route(a.errorHandler, a.createSubscription, binder.JSON()))
		r.Post("/cancel-subscription", route[struct{}](a.errorHandler, a.cancelSubscription))
		r.Post("/activate-subscription", route(a.errorHandler, a.activateSubscription, binder.JSON()))
	})

	return r
}

func route[R any](eh handler.ErrorHandler[handler.Context], h handler.HandlerFunc[handler.Context, R], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](eh),
	)
}

// limit returns a pass-through middleware when b is nil.
func (a *API) limit(b *ratelimiter.Bucket, namespace string, opts ...ratelimiter.MiddlewareOption) func(http.Handler) http.Handler {
	if b == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return ratelimiter.Middleware(b, ratelimiter.ByClientIP(namespace), opts...)
}

// identity resolves the gate's view of the caller.
func (a *API) identity(ctx context.Context) (gate.Identity, error) {
	if u, ok := UserFromContext(ctx); ok {
		return a.gate.Resolve(ctx, &u.ID)
	}
	return a.gate.Resolve(ctx, nil)
}

type messageResponse struct {
	Message string `json:"message"`
}
