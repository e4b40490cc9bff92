package account

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUsername  = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Token errors
var (
	ErrInvalidToken          = errors.New("invalid verification token")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	ErrAlreadyVerified       = errors.New("email already verified")
)

var ErrEmailDeliveryFailed = errors.New("failed to deliver email")
