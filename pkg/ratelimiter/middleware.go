package ratelimiter

import (
	"net/http"
	"strconv"

	"github.com/dmitrymomot/replykit/handler"
	"github.com/dmitrymomot/replykit/pkg/clientip"
)

// KeyFunc extracts a rate limit key from the request. An empty key skips
// limiting.
type KeyFunc func(r *http.Request) string

// ByClientIP keys buckets by the IP stored by clientip.Resolver.Middleware,
// under the given namespace.
func ByClientIP(namespace string) KeyFunc {
	return func(r *http.Request) string {
		ip := clientip.FromContext(r.Context())
		if ip == "" {
			return ""
		}
		return namespace + ":" + ip
	}
}

type middlewareOptions struct {
	skip   func(r *http.Request) bool
	denied handler.HTTPError
}

type MiddlewareOption func(*middlewareOptions)

// WithSkip bypasses the limiter for requests where fn returns true.
func WithSkip(fn func(r *http.Request) bool) MiddlewareOption {
	return func(o *middlewareOptions) {
		o.skip = fn
	}
}

// WithDeniedError sets the error rendered when a bucket is empty.
func WithDeniedError(err handler.HTTPError) MiddlewareOption {
	return func(o *middlewareOptions) {
		o.denied = err
	}
}

// Middleware creates an HTTP middleware for rate limiting. Responses carry
// X-RateLimit-* headers; denials render a JSON error with Retry-After.
func Middleware(b *Bucket, keyFunc KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	o := middlewareOptions{
		denied: handler.ErrTooManyRequests.WithMessage("Too many requests, please try again later"),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if o.skip != nil && o.skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := b.Allow(r.Context(), key)
			if err != nil {
				_ = handler.JSONError(handler.ErrServiceUnavailable).Render(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed() {
				if retryAfter := int(result.RetryAfter().Seconds()); retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				}
				_ = handler.JSONError(o.denied).Render(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
