package session

import (
	"context"
	"time"
)

// Store persists sessions keyed by token. Implementations must be safe for
// concurrent use.
type Store interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, token string) (*Session, error)
	// Touch records activity and moves the expiry of an existing session.
	Touch(ctx context.Context, token string, lastActivity, expiresAt time.Time) error
	Delete(ctx context.Context, token string) error
}
