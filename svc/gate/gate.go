package gate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dmitrymomot/replykit/pkg/logger"
	"github.com/dmitrymomot/replykit/pkg/subscription"
	"github.com/dmitrymomot/replykit/svc/generation"
)

// Identity is the caller as the gate sees it. UserID is nil for anonymous
// callers, who are always on the free tier.
type Identity struct {
	UserID *int64
	Tier   subscription.Tier
	Usage  int
}

func (i Identity) Authenticated() bool {
	return i.UserID != nil
}

// Ticket is an authorization to run one generation. It is redeemed with
// Charge after the generation succeeds.
type Ticket struct {
	Identity Identity
	Limit    int
	Tone     *Tone
}

// Gate decides whether a caller may invoke a capability and meters usage.
type Gate struct {
	store   subscription.Store
	catalog Catalog
	logger  *slog.Logger
}

type Option func(*Gate)

func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

func New(store subscription.Store, opts ...Option) *Gate {
	if store == nil {
		panic("gate: subscription store is required")
	}
	g := &Gate{
		store:   store,
		catalog: DefaultCatalog,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Catalog returns the tone catalog in use.
func (g *Gate) Catalog() Catalog {
	return g.catalog
}

// Resolve loads the caller's tier and usage. A missing subscription row
// reads as free.
func (g *Gate) Resolve(ctx context.Context, userID *int64) (Identity, error) {
	if userID == nil {
		return Identity{Tier: subscription.TierFree}, nil
	}

	sub, err := g.store.Get(ctx, *userID)
	if errors.Is(err, subscription.ErrSubscriptionNotFound) {
		return Identity{UserID: userID, Tier: subscription.TierFree}, nil
	}
	if err != nil {
		return Identity{}, fmt.Errorf("failed to load subscription: %w", err)
	}
	return Identity{UserID: userID, Tier: sub.Tier, Usage: sub.Usage}, nil
}

// AuthorizeGeneration checks tone access and the usage ceiling.
func (g *Gate) AuthorizeGeneration(ctx context.Context, ident Identity, req generation.Request) (Ticket, error) {
	ticket := Ticket{Identity: ident, Limit: ident.Tier.Limit()}

	if name, ok := generation.ToneOf(req); ok {
		tone, found := g.catalog.Lookup(name)
		if !found {
			return Ticket{}, fmt.Errorf("%w: %q", ErrUnknownTone, name)
		}
		if !ident.Tier.AtLeast(tone.MinTier) {
			return Ticket{}, &InsufficientTierError{Required: tone.MinTier}
		}
		ticket.Tone = &tone
	}

	if err := checkUsage(ident, ticket.Limit); err != nil {
		return Ticket{}, err
	}
	return ticket, nil
}

// AuthorizeTool checks access to a premium tool. Tools require an account.
func (g *Gate) AuthorizeTool(ctx context.Context, ident Identity, tool Tool) (Ticket, error) {
	if !ident.Authenticated() {
		return Ticket{}, ErrUnauthenticated
	}
	if required := tool.MinTier(); !ident.Tier.AtLeast(required) {
		return Ticket{}, &InsufficientTierError{Required: required}
	}

	limit := ident.Tier.Limit()
	if err := checkUsage(ident, limit); err != nil {
		return Ticket{}, err
	}
	return Ticket{Identity: ident, Limit: limit}, nil
}

// Charge counts one use against the ticket. Anonymous tickets are free of
// charge here; their quota is enforced per IP. A concurrent request that
// used the last unit makes Charge return ErrUsageExceeded.
func (g *Gate) Charge(ctx context.Context, t Ticket) (int, error) {
	if !t.Identity.Authenticated() {
		return 0, nil
	}

	usage, err := g.store.IncrementUsage(ctx, *t.Identity.UserID, t.Limit)
	if err != nil {
		if errors.Is(err, ErrUsageExceeded) {
			g.logger.WarnContext(ctx, "usage ceiling reached while charging",
				logger.UserID(t.Identity.UserID),
				logger.Tier(string(t.Identity.Tier)),
			)
		}
		return 0, err
	}
	return usage, nil
}

func checkUsage(ident Identity, limit int) error {
	if ident.Authenticated() && ident.Usage >= limit {
		return ErrUsageExceeded
	}
	return nil
}
