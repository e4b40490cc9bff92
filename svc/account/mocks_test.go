package account

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateUser(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStore) UserByID(ctx context.Context, id int64) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockStore) UserByUsername(ctx context.Context, username string) (*User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockStore) SetVerificationToken(ctx context.Context, userID int64, digest string) error {
	args := m.Called(ctx, userID, digest)
	return args.Error(0)
}

func (m *MockStore) ConsumeVerificationToken(ctx context.Context, digest string) (*User, bool, error) {
	args := m.Called(ctx, digest)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*User), args.Bool(1), args.Error(2)
}

func (m *MockStore) SetResetToken(ctx context.Context, userID int64, digest string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, digest, expiresAt)
	return args.Error(0)
}

func (m *MockStore) ConsumeResetToken(ctx context.Context, digest string, passwordHash []byte, now time.Time) (int64, error) {
	args := m.Called(ctx, digest, passwordHash, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockMailer is a mock implementation of Mailer.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendVerification(ctx context.Context, user *User, token string) error {
	args := m.Called(ctx, user, token)
	return args.Error(0)
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, user *User, token string) error {
	args := m.Called(ctx, user, token)
	return args.Error(0)
}

func (m *MockMailer) SendWelcome(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
