package account

import (
	"context"
	"time"
)

// Store persists credentials. Implementations live in svc/storage.
type Store interface {
	// CreateUser inserts the user together with a free subscription in one
	// transaction and sets user.ID. Returns ErrDuplicateUsername when the
	// username is taken.
	CreateUser(ctx context.Context, user *User) error

	// UserByID and UserByUsername return ErrUserNotFound when absent.
	UserByID(ctx context.Context, id int64) (*User, error)
	UserByUsername(ctx context.Context, username string) (*User, error)

	// SetVerificationToken replaces the verification token digest.
	SetVerificationToken(ctx context.Context, userID int64, digest string) error

	// ConsumeVerificationToken clears the token and marks its holder verified
	// in one statement. wasVerified reports the flag before the update.
	// Returns ErrInvalidToken when no user holds the digest.
	ConsumeVerificationToken(ctx context.Context, digest string) (user *User, wasVerified bool, err error)

	// SetResetToken stores a reset token digest and its expiry.
	SetResetToken(ctx context.Context, userID int64, digest string, expiresAt time.Time) error

	// ConsumeResetToken replaces the password hash of the user holding an
	// unexpired digest and clears the token. Returns ErrInvalidOrExpiredToken
	// when no such user exists.
	ConsumeResetToken(ctx context.Context, digest string, passwordHash []byte, now time.Time) (userID int64, err error)
}
