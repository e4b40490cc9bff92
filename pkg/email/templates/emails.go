package templates

import (
	"strconv"

	"github.com/a-h/templ"
)

// VerifyEmail asks the user to confirm their address.
func VerifyEmail(username, link string) templ.Component {
	return layout("Verify your email", raw(
		paragraph("Hi "+username+","),
		paragraph("Confirm your email address to finish setting up your ReplyKit account."),
		button(link, "Verify email"),
		paragraph("If you did not create an account you can ignore this message."),
	))
}

// ResetPassword carries a single-use link valid for validFor (for example "1 hour").
func ResetPassword(link, validFor string) templ.Component {
	return layout("Reset your password", raw(
		paragraph("We received a request to reset your password."),
		button(link, "Choose a new password"),
		paragraph("The link expires in "+validFor+". If you did not ask for a reset, no action is needed."),
	))
}

func Welcome(username string) templ.Component {
	return layout("Welcome to ReplyKit", raw(
		paragraph("Hi "+username+", your email is verified."),
		paragraph("Paste a message you received, pick a tone and get three replies to choose from."),
	))
}

// SubscriptionConfirmed is sent after a paid plan becomes active.
func SubscriptionConfirmed(username, tier string, monthlyLimit int) templ.Component {
	return layout("Your plan is active", raw(
		paragraph("Hi "+username+", thanks for upgrading."),
		paragraph("Your "+tier+" plan is now active."),
		paragraph("Your usage counter has been reset. This plan includes "+strconv.Itoa(monthlyLimit)+" generations."),
	))
}
