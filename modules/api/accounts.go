package api

import (
	"net/http"

	"github.com/dmitrymomot/replykit/handler"
	"github.com/dmitrymomot/replykit/pkg/logger"
	"github.com/dmitrymomot/replykit/pkg/subscription"
	"github.com/dmitrymomot/replykit/svc/account"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Username string `json:"username"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type verifyEmailRequest struct {
	Token string `path:"token"`
}

type userResponse struct {
	User         account.Profile     `json:"user"`
	Subscription subscription.Status `json:"subscription"`
}

func (a *API) register(ctx handler.Context, req registerRequest) handler.Response {
	user, err := a.accounts.Register(ctx, req.Username, req.Password, req.Email)
	if err != nil {
		return handler.Error(err)
	}
	if _, err := a.sessions.Authenticate(ctx, ctx.ResponseWriter(), ctx.Request(), user.ID); err != nil {
		return handler.Error(err)
	}

	a.track(ctx, "user_registered", map[string]any{"user_id": user.ID})
	return handler.JSON(userResponse{
		User:         user.Profile(),
		Subscription: subscription.StatusOf(nil),
	}, handler.WithJSONStatus(http.StatusCreated))
}

func (a *API) login(ctx handler.Context, req loginRequest) handler.Response {
	user, err := a.accounts.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return handler.Error(err)
	}
	if _, err := a.sessions.Authenticate(ctx, ctx.ResponseWriter(), ctx.Request(), user.ID); err != nil {
		return handler.Error(err)
	}
	return a.userResponse(ctx, user)
}

func (a *API) logout(ctx handler.Context, _ struct{}) handler.Response {
	if err := a.sessions.Destroy(ctx, ctx.ResponseWriter(), ctx.Request()); err != nil {
		a.logger.WarnContext(ctx, "failed to clear session cookie", logger.Error(err))
	}
	return handler.JSON(messageResponse{Message: "Logged out"})
}

func (a *API) currentUser(ctx handler.Context, _ struct{}) handler.Response {
	return a.userResponse(ctx, currentUser(ctx))
}

func (a *API) userResponse(ctx handler.Context, user *account.User) handler.Response {
	status, err := a.subscriptions.Get(ctx, user.ID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(userResponse{User: user.Profile(), Subscription: status})
}

// forgotPassword answers the same way whether or not the user exists.
func (a *API) forgotPassword(ctx handler.Context, req forgotPasswordRequest) handler.Response {
	if err := a.accounts.RequestPasswordReset(ctx, req.Username); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(messageResponse{
		Message: "If an account exists for that username, a password reset link has been sent",
	})
}

func (a *API) resetPassword(ctx handler.Context, req resetPasswordRequest) handler.Response {
	if err := a.accounts.ResetPassword(ctx, req.Token, req.Password); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(messageResponse{Message: "Password updated, you can now log in"})
}

func (a *API) verifyEmail(ctx handler.Context, req verifyEmailRequest) handler.Response {
	user, err := a.accounts.VerifyEmail(ctx, req.Token)
	if err != nil {
		return handler.Error(err)
	}
	a.track(ctx, "email_verified", nil)
	return handler.JSON(user.Profile())
}

func (a *API) resendVerification(ctx handler.Context, _ struct{}) handler.Response {
	if err := a.accounts.ResendVerification(ctx, currentUser(ctx).ID); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(messageResponse{Message: "Verification email sent"})
}
