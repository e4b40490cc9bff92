// Package memory implements the account and subscription stores in process
// memory. It backs local development and the HTTP tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/replykit/pkg/subscription"
	"github.com/dmitrymomot/replykit/svc/account"
)

// Store keeps users, subscriptions and processed webhook ids behind one
// RWMutex, so multi-table operations are atomic.
type Store struct {
	mu         sync.RWMutex
	nextID     int64
	users      map[int64]*account.User
	byUsername map[string]int64
	subs       map[int64]*subscription.Subscription
	events     map[string]string
}

func New() *Store {
	return &Store{
		users:      make(map[int64]*account.User),
		byUsername: make(map[string]int64),
		subs:       make(map[int64]*subscription.Subscription),
		events:     make(map[string]string),
	}
}

var (
	_ account.Store              = (*Store)(nil)
	_ subscription.Store         = (*Store)(nil)
	_ subscription.CustomerStore = (*Store)(nil)
	_ subscription.EventStore    = (*Store)(nil)
)

func copyUser(u *account.User) *account.User {
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	return &c
}

func ptr[T any](v T) *T { return &v }

func (s *Store) CreateUser(_ context.Context, user *account.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[user.Username]; ok {
		return account.ErrDuplicateUsername
	}

	s.nextID++
	user.ID = s.nextID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	s.users[user.ID] = copyUser(user)
	s.byUsername[user.Username] = user.ID
	s.subs[user.ID] = &subscription.Subscription{
		UserID:    user.ID,
		Tier:      subscription.TierFree,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.CreatedAt,
	}
	return nil
}

func (s *Store) UserByID(_ context.Context, id int64) (*account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, account.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (s *Store) UserByUsername(_ context.Context, username string) (*account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, account.ErrUserNotFound
	}
	return copyUser(s.users[id]), nil
}

func (s *Store) SetVerificationToken(_ context.Context, userID int64, digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return account.ErrUserNotFound
	}
	u.VerificationToken = ptr(digest)
	return nil
}

func (s *Store) ConsumeVerificationToken(_ context.Context, digest string) (*account.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.VerificationToken != nil && *u.VerificationToken == digest {
			was := u.IsVerified
			u.IsVerified = true
			u.VerificationToken = nil
			return copyUser(u), was, nil
		}
	}
	return nil, false, account.ErrInvalidToken
}

func (s *Store) SetResetToken(_ context.Context, userID int64, digest string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return account.ErrUserNotFound
	}
	u.ResetToken = ptr(digest)
	u.ResetTokenExpiresAt = ptr(expiresAt)
	return nil
}

func (s *Store) ConsumeResetToken(_ context.Context, digest string, passwordHash []byte, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ResetToken == nil || *u.ResetToken != digest {
			continue
		}
		if u.ResetTokenExpiresAt == nil || !u.ResetTokenExpiresAt.After(now) {
			return 0, account.ErrInvalidOrExpiredToken
		}
		u.PasswordHash = append([]byte(nil), passwordHash...)
		u.ResetToken = nil
		u.ResetTokenExpiresAt = nil
		return u.ID, nil
	}
	return 0, account.ErrInvalidOrExpiredToken
}

func (s *Store) Get(_ context.Context, userID int64) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[userID]
	if !ok {
		return nil, subscription.ErrSubscriptionNotFound
	}
	c := *sub
	return &c, nil
}

func (s *Store) SetTier(_ context.Context, userID int64, tier subscription.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return subscription.ErrCustomerNotFound
	}

	now := time.Now().UTC()
	sub, ok := s.subs[userID]
	if !ok {
		sub = &subscription.Subscription{UserID: userID, CreatedAt: now}
		s.subs[userID] = sub
	}
	sub.Tier = tier
	sub.Usage = 0
	sub.UpdatedAt = now
	return nil
}

func (s *Store) IncrementUsage(_ context.Context, userID int64, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[userID]
	if !ok {
		return 0, subscription.ErrSubscriptionNotFound
	}
	if sub.Usage >= limit {
		return 0, subscription.ErrUsageExceeded
	}
	sub.Usage++
	sub.UpdatedAt = time.Now().UTC()
	return sub.Usage, nil
}

func (s *Store) Customer(_ context.Context, userID int64) (*subscription.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, subscription.ErrCustomerNotFound
	}
	c := &subscription.Customer{UserID: u.ID, Username: u.Username, Email: u.Email}
	if u.StripeCustomerID != nil {
		c.StripeCustomerID = *u.StripeCustomerID
	}
	if u.StripeSubscriptionID != nil {
		c.StripeSubscriptionID = *u.StripeSubscriptionID
	}
	return c, nil
}

func (s *Store) UserIDByStripeCustomer(_ context.Context, customerID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.StripeCustomerID != nil && *u.StripeCustomerID == customerID {
			return u.ID, nil
		}
	}
	return 0, subscription.ErrCustomerNotFound
}

func (s *Store) SetStripeCustomer(_ context.Context, userID int64, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return subscription.ErrCustomerNotFound
	}
	u.StripeCustomerID = ptr(customerID)
	return nil
}

func (s *Store) SetStripeSubscription(_ context.Context, userID int64, customerID, subscriptionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return subscription.ErrCustomerNotFound
	}
	if customerID != "" {
		u.StripeCustomerID = ptr(customerID)
	}
	if subscriptionID != "" {
		u.StripeSubscriptionID = ptr(subscriptionID)
	}
	return nil
}

func (s *Store) MarkProcessed(_ context.Context, eventID, eventType string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[eventID]; ok {
		return false, nil
	}
	s.events[eventID] = eventType
	return true, nil
}

func (s *Store) Unmark(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.events, eventID)
	return nil
}
