package account

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/replykit/pkg/email"
	"github.com/dmitrymomot/replykit/pkg/email/templates"
	"github.com/dmitrymomot/replykit/pkg/subscription"
)

// Mailer sends the transactional emails of the account lifecycle.
type Mailer interface {
	SendVerification(ctx context.Context, user *User, token string) error
	SendPasswordReset(ctx context.Context, user *User, token string) error
	SendWelcome(ctx context.Context, user *User) error
}

// EmailMailer renders templates and hands them to an email.EmailSender. It
// also implements subscription.Notifier.
type EmailMailer struct {
	sender  email.EmailSender
	baseURL string
}

// NewEmailMailer builds a mailer; links are rooted at baseURL.
func NewEmailMailer(sender email.EmailSender, baseURL string) *EmailMailer {
	if sender == nil {
		panic("account: email sender is required")
	}
	return &EmailMailer{sender: sender, baseURL: strings.TrimRight(baseURL, "/")}
}

func (m *EmailMailer) SendVerification(ctx context.Context, user *User, token string) error {
	link := m.baseURL + "/api/verify-email/" + url.PathEscape(token)
	return m.send(ctx, user.Email, "Verify your email", "verify-email",
		templates.VerifyEmail(user.Username, link))
}

func (m *EmailMailer) SendPasswordReset(ctx context.Context, user *User, token string) error {
	link := m.baseURL + "/reset-password?token=" + url.QueryEscape(token)
	return m.send(ctx, user.Email, "Reset your password", "password-reset",
		templates.ResetPassword(link, "1 hour"))
}

func (m *EmailMailer) SendWelcome(ctx context.Context, user *User) error {
	return m.send(ctx, user.Email, "Welcome to ReplyKit", "welcome",
		templates.Welcome(user.Username))
}

// SubscriptionConfirmed implements subscription.Notifier.
func (m *EmailMailer) SubscriptionConfirmed(ctx context.Context, c subscription.Customer, tier subscription.Tier) error {
	return m.send(ctx, c.Email, "Your "+tier.Title()+" plan is active", "subscription-confirmed",
		templates.SubscriptionConfirmed(c.Username, tier.Title(), tier.Limit()))
}

func (m *EmailMailer) send(ctx context.Context, to, subject, tag string, body templ.Component) error {
	html, err := templates.Render(ctx, body)
	if err != nil {
		return fmt.Errorf("failed to render %s email: %w", tag, err)
	}
	return m.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  subject,
		BodyHTML: html,
		Tag:      tag,
	})
}
