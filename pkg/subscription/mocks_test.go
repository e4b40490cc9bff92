package subscription_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/replykit/pkg/subscription"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) EnsureCustomer(ctx context.Context, customerID string, c subscription.Customer) (string, error) {
	args := m.Called(ctx, customerID, c)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) CreateCheckout(ctx context.Context, req subscription.CheckoutRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) RetrieveCheckout(ctx context.Context, sessionID string) (*subscription.CheckoutSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.CheckoutSession), args.Error(1)
}

func (m *MockProvider) RetrieveSubscription(ctx context.Context, subscriptionID string) (*subscription.SubscriptionChange, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.SubscriptionChange), args.Error(1)
}

func (m *MockProvider) CancelSubscription(ctx context.Context, subscriptionID string) error {
	args := m.Called(ctx, subscriptionID)
	return args.Error(0)
}

func (m *MockProvider) ParseEvent(payload []byte, signature string) (*subscription.Event, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Event), args.Error(1)
}

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

type MockCustomerStore struct {
	mock.Mock
}

func (m *MockCustomerStore) Customer(ctx context.Context, userID int64) (*subscription.Customer, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Customer), args.Error(1)
}

func (m *MockCustomerStore) UserIDByStripeCustomer(ctx context.Context, customerID string) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerStore) SetStripeCustomer(ctx context.Context, userID int64, customerID string) error {
	args := m.Called(ctx, userID, customerID)
	return args.Error(0)
}

func (m *MockCustomerStore) SetStripeSubscription(ctx context.Context, userID int64, customerID, subscriptionID string) error {
	args := m.Called(ctx, userID, customerID, subscriptionID)
	return args.Error(0)
}

type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	args := m.Called(ctx, eventID, eventType)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventStore) Unmark(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SubscriptionConfirmed(ctx context.Context, c subscription.Customer, tier subscription.Tier) error {
	args := m.Called(ctx, c, tier)
	return args.Error(0)
}
