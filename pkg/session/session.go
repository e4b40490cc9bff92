package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is the stored state behind a session token.
type Session struct {
	ID             uuid.UUID `json:"id"`
	Token          string    `json:"token"`
	UserID         *int64    `json:"user_id,omitempty"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewSession creates a session that expires after ttl.
func NewSession(token string, userID *int64, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:             uuid.New(),
		Token:          token,
		UserID:         userID,
		ExpiresAt:      now.Add(ttl),
		LastActivityAt: now,
		CreatedAt:      now,
	}
}

func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != nil
}

func (s *Session) IsExpired() bool {
	return s != nil && time.Now().After(s.ExpiresAt)
}

// Touch records activity at the current time.
func (s *Session) Touch() {
	if s == nil {
		return
	}
	s.LastActivityAt = time.Now()
}
