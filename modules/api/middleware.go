package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrymomot/replykit/handler"
	"github.com/dmitrymomot/replykit/pkg/logger"
	"github.com/dmitrymomot/replykit/pkg/session"
	"github.com/dmitrymomot/replykit/svc/account"
)

var userKey = handler.NewContextKey("user")

func withUser(ctx context.Context, u *account.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the user loaded by the identity middleware.
func UserFromContext(ctx context.Context) (*account.User, bool) {
	u, ok := handler.ContextValueOK[*account.User](ctx, userKey)
	return u, ok && u != nil
}

// identify resolves the session's user. A session pointing at a user that no
// longer exists is destroyed and the request continues anonymously.
func (a *API) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, ok := session.UserIDFromContext(ctx)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		user, err := a.accounts.GetUser(ctx, userID)
		switch {
		case errors.Is(err, account.ErrUserNotFound):
			a.logger.WarnContext(ctx, "session references missing user",
				logger.UserID(userID),
				logger.Component("api"),
			)
			if derr := a.sessions.Destroy(ctx, w, r); derr != nil {
				a.logger.ErrorContext(ctx, "failed to destroy session", logger.Error(derr))
			}
			next.ServeHTTP(w, r.WithContext(session.WithSession(ctx, nil)))
		case err != nil:
			a.errorHandler(handler.NewContext(w, r), err)
		default:
			next.ServeHTTP(w, r.WithContext(withUser(ctx, user)))
		}
	})
}

// requireUser rejects requests without an identified user.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			_ = handler.JSONError(errUnauthenticated).Render(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser is for handlers mounted behind requireUser.
func currentUser(ctx context.Context) *account.User {
	u, _ := UserFromContext(ctx)
	return u
}
