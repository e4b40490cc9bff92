package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/replykit/pkg/token"
)

// Manager handles session operations
type Manager struct {
	store        Store
	transport    Transport
	config       Config
	secret       string
	activityChan chan activityUpdate
	done         chan struct{}
	closeOnce    sync.Once
	wg           sync.WaitGroup
}

type activityUpdate struct {
	token     string
	at        time.Time
	expiresAt time.Time
}

// New creates a session manager. Without WithStore it uses a MemoryStore;
// without WithTransport it uses a CookieTransport and requires WithSecret.
func New(opts ...Option) *Manager {
	m := &Manager{
		config:       DefaultConfig(),
		activityChan: make(chan activityUpdate, 1000),
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore(m.config.CleanupInterval)
	}

	if m.transport == nil {
		if m.secret == "" {
			panic("session: secret is required when using default cookie transport")
		}
		m.transport = NewCookieTransport(m.config.CookieName, m.secret, m.config.SecureCookies)
	}

	m.wg.Add(1)
	go m.activityWorker()

	return m
}

// Get returns the valid session referenced by the request.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	tok, err := m.transport.GetToken(r)
	if err != nil {
		return nil, err
	}

	session, err := m.store.Get(ctx, tok)
	if err != nil {
		return nil, err
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return session, nil
}

// Authenticate starts an authenticated session for userID under a fresh
// token. Any session the request already referenced is deleted.
func (m *Manager) Authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request, userID int64) (*Session, error) {
	if old, err := m.transport.GetToken(r); err == nil && old != "" {
		_ = m.store.Delete(ctx, old)
	}

	now := time.Now()
	session := NewSession(token.Random(), &userID, m.config.expiry(now, now).Sub(now))
	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := m.transport.SetToken(w, session.Token, m.config.MaxLifetime); err != nil {
		_ = m.store.Delete(ctx, session.Token)
		return nil, err
	}
	return session, nil
}

// Destroy deletes the session and clears the token. It never fails on a
// missing session.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	tok, err := m.transport.GetToken(r)
	if err == nil && tok != "" {
		_ = m.store.Delete(ctx, tok)
	}

	return m.transport.ClearToken(w)
}

func (m *Manager) shouldUpdateActivity(session *Session) bool {
	return time.Since(session.LastActivityAt) >= m.config.ActivityUpdateThreshold
}

func (m *Manager) queueActivityUpdate(session *Session) {
	now := time.Now()
	select {
	case m.activityChan <- activityUpdate{
		token:     session.Token,
		at:        now,
		expiresAt: m.config.expiry(session.CreatedAt, now),
	}:
	default:
		// Channel full; the update is dropped rather than blocking the request.
	}
}

func (m *Manager) activityWorker() {
	defer m.wg.Done()
	for {
		select {
		case u := <-m.activityChan:
			m.applyActivity(u)
		case <-m.done:
			for {
				select {
				case u := <-m.activityChan:
					m.applyActivity(u)
				default:
					return
				}
			}
		}
	}
}

func (m *Manager) applyActivity(u activityUpdate) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = m.store.Touch(ctx, u.token, u.at, u.expiresAt)
}

// Close drains pending activity updates and stops the worker. Stores with a
// Close method are closed too.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	m.wg.Wait()

	if c, ok := m.store.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// IsNotFound reports whether err means the request carries no usable session.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionExpired)
}
