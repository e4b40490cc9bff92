package session

import (
	"net/http"

	"github.com/dmitrymomot/replykit/handler"
)

var errUnauthenticated = handler.NewHTTPError(http.StatusUnauthorized, "unauthenticated").
	WithMessage("Authentication required")

// Middleware loads the request's session, if any, into the context. Requests
// without a valid session pass through untouched.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.Get(r.Context(), r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		if m.shouldUpdateActivity(session) {
			m.queueActivityUpdate(session)
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// RequireAuth responds 401 with a JSON error unless an authenticated session
// is in the context or on the request.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := FromContext(r.Context())
		if !ok {
			var err error
			if session, err = m.Get(r.Context(), r); err != nil {
				session = nil
			}
		}
		if !session.IsAuthenticated() {
			_ = handler.JSONError(errUnauthenticated).Render(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}
