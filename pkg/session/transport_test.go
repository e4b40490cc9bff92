package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/replykit/pkg/session"
)

func TestCookieTransport(t *testing.T) {
	t.Parallel()

	tr := session.NewCookieTransport("sid", testSecret, true)

	w := httptest.NewRecorder()
	require.NoError(t, tr.SetToken(w, "opaque", time.Hour))

	c := w.Result().Cookies()[0]
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 3600, c.MaxAge)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	tok, err := tr.GetToken(r)
	require.NoError(t, err)
	assert.Equal(t, "opaque", tok)

	t.Run("other secret rejects", func(t *testing.T) {
		t.Parallel()
		other := session.NewCookieTransport("sid", "another-secret", true)
		_, err := other.GetToken(r)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})
}
