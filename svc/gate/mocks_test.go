package gate_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/replykit/pkg/subscription"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, userID int64) (*subscription.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockStore) SetTier(ctx context.Context, userID int64, tier subscription.Tier) error {
	args := m.Called(ctx, userID, tier)
	return args.Error(0)
}

func (m *MockStore) IncrementUsage(ctx context.Context, userID int64, limit int) (int, error) {
	args := m.Called(ctx, userID, limit)
	return args.Int(0), args.Error(1)
}
