package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/replykit/handler"
	"github.com/dmitrymomot/replykit/modules/api"
	"github.com/dmitrymomot/replykit/pkg/eventlog"
	"github.com/dmitrymomot/replykit/pkg/ratelimiter"
	"github.com/dmitrymomot/replykit/pkg/session"
	"github.com/dmitrymomot/replykit/pkg/subscription"
	"github.com/dmitrymomot/replykit/svc/account"
	"github.com/dmitrymomot/replykit/svc/gate"
	"github.com/dmitrymomot/replykit/svc/generation"
	"github.com/dmitrymomot/replykit/svc/storage/memory"
)

const testSignature = "t=1,v1=valid"

// fakeMailer records the tokens it was asked to deliver.
type fakeMailer struct {
	mu           sync.Mutex
	verification map[string]string
	reset        map[string]string
	welcomes     map[string]int
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{
		verification: make(map[string]string),
		reset:        make(map[string]string),
		welcomes:     make(map[string]int),
	}
}

func (m *fakeMailer) SendVerification(_ context.Context, u *account.User, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verification[u.Username] = token
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, u *account.User, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset[u.Username] = token
	return nil
}

func (m *fakeMailer) SendWelcome(_ context.Context, u *account.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomes[u.Username]++
	return nil
}

func (m *fakeMailer) verificationToken(username string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verification[username]
}

func (m *fakeMailer) resetToken(username string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reset[username]
}

func (m *fakeMailer) welcomeCount(username string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.welcomes[username]
}

// fakeProvider stands in for Stripe. Webhook payloads are JSON-encoded
// subscription.Event values and testSignature is the only valid signature.
type fakeProvider struct {
	mu        sync.Mutex
	checkouts map[string]*subscription.CheckoutSession
	canceled  []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{checkouts: make(map[string]*subscription.CheckoutSession)}
}

func (p *fakeProvider) EnsureCustomer(_ context.Context, customerID string, c subscription.Customer) (string, error) {
	if customerID != "" {
		return customerID, nil
	}
	return "cus_" + strconv.FormatInt(c.UserID, 10), nil
}

func (p *fakeProvider) CreateCheckout(_ context.Context, req subscription.CheckoutRequest) (string, error) {
	return "https://checkout.stripe.test/" + string(req.Tier) + "?customer=" + req.CustomerID, nil
}

func (p *fakeProvider) RetrieveCheckout(_ context.Context, sessionID string) (*subscription.CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cs, ok := p.checkouts[sessionID]
	if !ok {
		return nil, subscription.ErrCheckoutNotVerified
	}
	c := *cs
	return &c, nil
}

func (p *fakeProvider) CancelSubscription(_ context.Context, subscriptionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.canceled = append(p.canceled, subscriptionID)
	return nil
}

// RetrieveSubscription reports a subscription as canceled once
// CancelSubscription has seen it and active otherwise.
func (p *fakeProvider) RetrieveSubscription(_ context.Context, subscriptionID string) (*subscription.SubscriptionChange, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sub := &subscription.SubscriptionChange{ID: subscriptionID, Status: "active"}
	if slices.Contains(p.canceled, subscriptionID) {
		sub.Status = "canceled"
	}
	for _, cs := range p.checkouts {
		if cs.SubscriptionID == subscriptionID {
			sub.CustomerID = cs.CustomerID
			sub.PriceTier = cs.PriceTier
		}
	}
	return sub, nil
}

func (p *fakeProvider) ParseEvent(payload []byte, signature string) (*subscription.Event, error) {
	if signature != testSignature {
		return nil, subscription.ErrInvalidSignature
	}
	var ev subscription.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, subscription.ErrInvalidSignature
	}
	return &ev, nil
}

func (p *fakeProvider) addCheckout(cs subscription.CheckoutSession) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkouts[cs.ID] = &cs
}

func (p *fakeProvider) canceledSubscriptions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.canceled...)
}

// eventSink is an in-memory eventlog.Storage.
type eventSink struct {
	mu     sync.Mutex
	events []eventlog.Event
}

func (s *eventSink) Store(_ context.Context, e eventlog.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *eventSink) named(name string) []eventlog.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []eventlog.Event
	for _, e := range s.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

type envOptions struct {
	capability   generation.Capability
	timeout      time.Duration
	anonCapacity int
	accounts     func(account.Service) account.Service
}

type testEnv struct {
	server   *httptest.Server
	store    *memory.Store
	mailer   *fakeMailer
	provider *fakeProvider
	events   *eventSink
	calls    *atomic.Int32
}

func defaultCapability(calls *atomic.Int32) generation.Capability {
	return generation.CapabilityFunc(func(ctx context.Context, p generation.Prompt) ([]string, error) {
		calls.Add(1)
		return []string{"Sounds like a great weekend!", "  ", "Tell me more about it?"}, nil
	})
}

func newEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	env := &testEnv{
		store:    memory.New(),
		mailer:   newFakeMailer(),
		provider: newFakeProvider(),
		events:   &eventSink{},
		calls:    &atomic.Int32{},
	}

	capability := opts.capability
	if capability == nil {
		capability = defaultCapability(env.calls)
	}
	var facadeOpts []generation.FacadeOption
	if opts.timeout > 0 {
		facadeOpts = append(facadeOpts, generation.WithTimeout(opts.timeout))
	}

	var accounts account.Service = account.NewService(env.store, env.mailer,
		account.WithBcryptCost(bcrypt.MinCost),
	)
	if opts.accounts != nil {
		accounts = opts.accounts(accounts)
	}

	sessions := session.New(session.WithSecret("test-session-secret"))
	t.Cleanup(func() { _ = sessions.Close() })

	anonCapacity := opts.anonCapacity
	if anonCapacity == 0 {
		anonCapacity = 100
	}
	limiterStore := ratelimiter.NewMemoryStore()
	t.Cleanup(func() { _ = limiterStore.Close() })
	anonLimiter, err := ratelimiter.NewBucket(limiterStore, ratelimiter.Config{
		Capacity:       anonCapacity,
		RefillRate:     anonCapacity,
		RefillInterval: 24 * time.Hour,
	})
	require.NoError(t, err)

	a := api.New(api.Options{
		Accounts:      accounts,
		Sessions:      sessions,
		Subscriptions: subscription.NewService(env.provider, env.store, env.store, env.store),
		Gate:          gate.New(env.store),
		Generator:     generation.NewFacade(capability, facadeOpts...),
		Events:        eventlog.New(env.events, eventlog.WithUserIDExtractor(session.UserIDFromContext)),
		AnonLimiter:   anonLimiter,
		BaseURL:       "https://replykit.test",
	})

	r := chi.NewRouter()
	r.Mount("/api", a.Handle())
	env.server = httptest.NewServer(r)
	t.Cleanup(env.server.Close)

	return env
}

// client returns an HTTP client with its own cookie jar, i.e. its own session.
func (e *testEnv) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

type envelope[T any] struct {
	Data  T                    `json:"data"`
	Meta  map[string]any       `json:"meta"`
	Error *handler.ErrorDetail `json:"error"`
}

func call[T any](t *testing.T, e *testEnv, c *http.Client, method, path string, body any, headers ...string) (int, envelope[T]) {
	t.Helper()

	var payload []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		payload = b
	default:
		var err error
		payload, err = json.Marshal(b)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, e.server.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out envelope[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

type userData struct {
	User struct {
		ID         int64  `json:"id"`
		Username   string `json:"username"`
		Email      string `json:"email"`
		IsVerified bool   `json:"isVerified"`
	} `json:"user"`
	Subscription subscription.Status `json:"subscription"`
}

type generationData struct {
	Mode      string               `json:"mode"`
	Replies   []generation.Reply   `json:"replies"`
	ToneLabel string               `json:"toneLabel"`
	Fallback  bool                 `json:"fallback"`
	Sub       *subscription.Status `json:"subscription"`
}

// register creates an account and returns a client holding its session.
func (e *testEnv) register(t *testing.T, username string) (*http.Client, int64) {
	t.Helper()
	c := e.client(t)
	status, body := call[userData](t, e, c, http.MethodPost, "/api/register", map[string]string{
		"username": username,
		"password": "Password1",
	})
	require.Equal(t, http.StatusCreated, status)
	return c, body.Data.User.ID
}

// deliverCheckout posts a signed checkout.session.completed webhook.
func (e *testEnv) deliverCheckout(t *testing.T, eventID string, userID int64, tier subscription.Tier) int {
	t.Helper()
	payload, err := json.Marshal(subscription.Event{
		ID:   eventID,
		Type: subscription.EventCheckoutCompleted,
		Checkout: &subscription.CheckoutSession{
			ID:             "cs_" + eventID,
			Status:         "complete",
			PaymentStatus:  "paid",
			UserRef:        strconv.FormatInt(userID, 10),
			PriceTier:      tier,
			CustomerID:     "cus_" + strconv.FormatInt(userID, 10),
			SubscriptionID: "sub_" + eventID,
		},
	})
	require.NoError(t, err)

	status, _ := call[map[string]any](t, e, e.client(t), http.MethodPost, "/api/webhook", payload,
		"Stripe-Signature", testSignature)
	return status
}
