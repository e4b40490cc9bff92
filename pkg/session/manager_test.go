package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/replykit/pkg/session"
)

const testSecret = "test-secret-key-that-is-long-enough"

func setupManager(t *testing.T) (*session.Manager, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore(0)
	manager := session.New(
		session.WithStore(store),
		session.WithSecret(testSecret),
		session.WithConfig(session.Config{
			CookieName:              "test-sid",
			IdleTimeout:             2 * time.Hour,
			MaxLifetime:             24 * time.Hour,
			ActivityUpdateThreshold: 5 * time.Minute,
		}),
	)
	t.Cleanup(func() { _ = manager.Close() })
	return manager, store
}

// requestWithCookies copies Set-Cookie values from a recorder onto a new request.
func requestWithCookies(w *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestNew_PanicsWithoutSecret(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() {
		session.New()
	})
}

func TestManager_Authenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates session and sets cookie", func(t *testing.T) {
		t.Parallel()
		manager, _ := setupManager(t)

		w := httptest.NewRecorder()
		sess, err := manager.Authenticate(ctx, w, httptest.NewRequest(http.MethodPost, "/", nil), 42)
		require.NoError(t, err)
		require.True(t, sess.IsAuthenticated())
		assert.Equal(t, int64(42), *sess.UserID)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "test-sid", cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.NotEqual(t, sess.Token, cookies[0].Value, "cookie carries a signed token")

		got, err := manager.Get(ctx, requestWithCookies(w))
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.ID)
	})

	t.Run("rotates token and drops previous session", func(t *testing.T) {
		t.Parallel()
		manager, store := setupManager(t)

		w1 := httptest.NewRecorder()
		first, err := manager.Authenticate(ctx, w1, httptest.NewRequest(http.MethodPost, "/", nil), 1)
		require.NoError(t, err)

		w2 := httptest.NewRecorder()
		second, err := manager.Authenticate(ctx, w2, requestWithCookies(w1), 1)
		require.NoError(t, err)

		assert.NotEqual(t, first.Token, second.Token)
		_, err = store.Get(ctx, first.Token)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
		assert.Equal(t, 1, store.Len())

		_, err = manager.Get(ctx, requestWithCookies(w1))
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})
}

func TestManager_Get(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("no cookie", func(t *testing.T) {
		t.Parallel()
		manager, _ := setupManager(t)
		_, err := manager.Get(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
		assert.True(t, session.IsNotFound(err))
	})

	t.Run("tampered cookie", func(t *testing.T) {
		t.Parallel()
		manager, _ := setupManager(t)

		w := httptest.NewRecorder()
		_, err := manager.Authenticate(ctx, w, httptest.NewRequest(http.MethodPost, "/", nil), 7)
		require.NoError(t, err)

		c := w.Result().Cookies()[0]
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: c.Name, Value: "x" + c.Value})

		_, err = manager.Get(ctx, r)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("expired session", func(t *testing.T) {
		t.Parallel()
		manager, store := setupManager(t)

		w := httptest.NewRecorder()
		sess, err := manager.Authenticate(ctx, w, httptest.NewRequest(http.MethodPost, "/", nil), 7)
		require.NoError(t, err)
		require.NoError(t, store.Touch(ctx, sess.Token, time.Now(), time.Now().Add(-time.Second)))

		_, err = manager.Get(ctx, requestWithCookies(w))
		assert.ErrorIs(t, err, session.ErrSessionExpired)
		assert.True(t, session.IsNotFound(err))
	})
}

func TestManager_Destroy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("removes session and clears cookie", func(t *testing.T) {
		t.Parallel()
		manager, store := setupManager(t)

		w := httptest.NewRecorder()
		_, err := manager.Authenticate(ctx, w, httptest.NewRequest(http.MethodPost, "/", nil), 9)
		require.NoError(t, err)

		wd := httptest.NewRecorder()
		require.NoError(t, manager.Destroy(ctx, wd, requestWithCookies(w)))
		assert.Equal(t, 0, store.Len())

		cookies := wd.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})

	t.Run("succeeds without session", func(t *testing.T) {
		t.Parallel()
		manager, _ := setupManager(t)
		assert.NoError(t, manager.Destroy(ctx, httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil)))
	})
}

func TestManager_Close_DrainsActivity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := session.NewMemoryStore(0)
	manager := session.New(
		session.WithStore(store),
		session.WithSecret(testSecret),
		session.WithConfig(session.Config{
			CookieName:  "sid",
			IdleTimeout: time.Hour,
			MaxLifetime: 24 * time.Hour,
			// every request counts as activity
			ActivityUpdateThreshold: 0,
		}),
	)

	w := httptest.NewRecorder()
	sess, err := manager.Authenticate(ctx, w, httptest.NewRequest(http.MethodPost, "/", nil), 3)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	h := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), requestWithCookies(w))

	require.NoError(t, manager.Close())

	got, err := store.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.True(t, got.LastActivityAt.After(sess.LastActivityAt))
	assert.True(t, got.ExpiresAt.After(sess.ExpiresAt))
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	manager, _ := setupManager(t)

	w := httptest.NewRecorder()
	_, err := manager.Authenticate(ctx, w, httptest.NewRequest(http.MethodPost, "/", nil), 5)
	require.NoError(t, err)

	var gotID int64
	var gotOK bool
	h := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = session.UserIDFromContext(r.Context())
	}))

	t.Run("with session", func(t *testing.T) {
		h.ServeHTTP(httptest.NewRecorder(), requestWithCookies(w))
		assert.True(t, gotOK)
		assert.Equal(t, int64(5), gotID)
	})

	t.Run("anonymous passes through", func(t *testing.T) {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.False(t, gotOK)
	})
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	manager, _ := setupManager(t)

	called := false
	h := manager.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("rejects anonymous with json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "unauthenticated", body.Error.Code)
	})

	t.Run("allows authenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		_, err := manager.Authenticate(ctx, w, httptest.NewRequest(http.MethodPost, "/", nil), 11)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestWithCookies(w))
		assert.True(t, called)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
