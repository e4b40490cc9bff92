package gate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/replykit/pkg/subscription"
	"github.com/dmitrymomot/replykit/svc/gate"
	"github.com/dmitrymomot/replykit/svc/generation"
)

func userID(id int64) *int64 { return &id }

func TestCatalog(t *testing.T) {
	t.Parallel()

	require.Len(t, gate.DefaultCatalog, 15)
	assert.Len(t, gate.DefaultCatalog.Available(subscription.TierFree), 5)
	assert.Len(t, gate.DefaultCatalog.Available(subscription.TierBasic), 10)
	assert.Len(t, gate.DefaultCatalog.Available(subscription.TierPro), 15)

	tone, ok := gate.DefaultCatalog.Lookup("  FLIRTY ")
	require.True(t, ok)
	assert.Equal(t, subscription.TierBasic, tone.MinTier)

	_, ok = gate.DefaultCatalog.Lookup("grumpy")
	assert.False(t, ok)
}

func TestGate_Resolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("anonymous is free", func(t *testing.T) {
		t.Parallel()
		g := gate.New(&MockStore{})
		id, err := g.Resolve(ctx, nil)
		require.NoError(t, err)
		assert.False(t, id.Authenticated())
		assert.Equal(t, subscription.TierFree, id.Tier)
	})

	t.Run("missing row is free", func(t *testing.T) {
		t.Parallel()
		store := &MockStore{}
		store.On("Get", ctx, int64(7)).Return(nil, subscription.ErrSubscriptionNotFound)
		id, err := gate.New(store).Resolve(ctx, userID(7))
		require.NoError(t, err)
		assert.True(t, id.Authenticated())
		assert.Equal(t, subscription.TierFree, id.Tier)
	})

	t.Run("subscription tier", func(t *testing.T) {
		t.Parallel()
		store := &MockStore{}
		store.On("Get", ctx, int64(7)).Return(&subscription.Subscription{UserID: 7, Tier: subscription.TierPro, Usage: 12}, nil)
		id, err := gate.New(store).Resolve(ctx, userID(7))
		require.NoError(t, err)
		assert.Equal(t, subscription.TierPro, id.Tier)
		assert.Equal(t, 12, id.Usage)
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()
		store := &MockStore{}
		store.On("Get", ctx, int64(7)).Return(nil, errors.New("db down"))
		_, err := gate.New(store).Resolve(ctx, userID(7))
		assert.Error(t, err)
	})
}

func TestGate_AuthorizeGeneration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := gate.New(&MockStore{})

	anon := gate.Identity{Tier: subscription.TierFree}
	free := gate.Identity{UserID: userID(1), Tier: subscription.TierFree, Usage: 3}
	basic := gate.Identity{UserID: userID(2), Tier: subscription.TierBasic}
	proExhausted := gate.Identity{UserID: userID(3), Tier: subscription.TierPro, Usage: 400}

	tests := []struct {
		name     string
		ident    gate.Identity
		req      generation.Request
		err      error
		required subscription.Tier
	}{
		{"say it better skips tone check for anonymous", anon, generation.SayItBetter{UserInput: "hi"}, nil, ""},
		{"free tone for free user", free, generation.ToneReply{Message: "hi", Tone: "Friendly"}, nil, ""},
		{"basic tone for free user", free, generation.ToneReply{Message: "hi", Tone: "flirty"}, nil, subscription.TierBasic},
		{"pro tone for anonymous", anon, generation.Legacy{Message: "hi", Tone: "poetic"}, nil, subscription.TierPro},
		{"basic tone for basic user", basic, generation.Legacy{Message: "hi", Tone: "sarcastic"}, nil, ""},
		{"pro tone for basic user", basic, generation.ToneReply{Message: "hi", Tone: "bold"}, nil, subscription.TierPro},
		{"unknown tone", basic, generation.ToneReply{Message: "hi", Tone: "grumpy"}, gate.ErrUnknownTone, ""},
		{"usage ceiling", proExhausted, generation.SayItBetter{UserInput: "hi"}, gate.ErrUsageExceeded, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ticket, err := g.AuthorizeGeneration(ctx, tt.ident, tt.req)
			switch {
			case tt.required != "":
				var ite *gate.InsufficientTierError
				require.ErrorAs(t, err, &ite)
				assert.Equal(t, tt.required, ite.Required)
			case tt.err != nil:
				assert.ErrorIs(t, err, tt.err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.ident.Tier.Limit(), ticket.Limit)
			}
		})
	}
}

func TestGate_AuthorizeTool(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := gate.New(&MockStore{})

	_, err := g.AuthorizeTool(ctx, gate.Identity{Tier: subscription.TierFree}, gate.ToolStarters)
	assert.ErrorIs(t, err, gate.ErrUnauthenticated)

	var ite *gate.InsufficientTierError
	_, err = g.AuthorizeTool(ctx, gate.Identity{UserID: userID(1), Tier: subscription.TierFree}, gate.ToolStarters)
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, subscription.TierBasic, ite.Required)
	assert.Equal(t, "this feature requires the Basic plan", ite.Error())

	_, err = g.AuthorizeTool(ctx, gate.Identity{UserID: userID(1), Tier: subscription.TierBasic}, gate.ToolCoach)
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, subscription.TierPro, ite.Required)

	_, err = g.AuthorizeTool(ctx, gate.Identity{UserID: userID(1), Tier: subscription.TierBasic}, gate.ToolStarters)
	assert.NoError(t, err)

	_, err = g.AuthorizeTool(ctx, gate.Identity{UserID: userID(1), Tier: subscription.TierPro, Usage: 400}, gate.ToolDecoder)
	assert.ErrorIs(t, err, gate.ErrUsageExceeded)
}

func TestGate_Charge(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("anonymous is a no-op", func(t *testing.T) {
		t.Parallel()
		store := &MockStore{}
		n, err := gate.New(store).Charge(ctx, gate.Ticket{Identity: gate.Identity{Tier: subscription.TierFree}, Limit: 10})
		require.NoError(t, err)
		assert.Zero(t, n)
		store.AssertNumberOfCalls(t, "IncrementUsage", 0)
	})

	t.Run("increments with limit", func(t *testing.T) {
		t.Parallel()
		store := &MockStore{}
		store.On("IncrementUsage", ctx, int64(7), 100).Return(5, nil)
		n, err := gate.New(store).Charge(ctx, gate.Ticket{Identity: gate.Identity{UserID: userID(7), Tier: subscription.TierBasic}, Limit: 100})
		require.NoError(t, err)
		assert.Equal(t, 5, n)
	})

	t.Run("lost race", func(t *testing.T) {
		t.Parallel()
		store := &MockStore{}
		store.On("IncrementUsage", ctx, int64(7), 10).Return(0, subscription.ErrUsageExceeded)
		_, err := gate.New(store).Charge(ctx, gate.Ticket{Identity: gate.Identity{UserID: userID(7), Tier: subscription.TierFree}, Limit: 10})
		assert.ErrorIs(t, err, gate.ErrUsageExceeded)
	})
}
