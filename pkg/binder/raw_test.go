package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/replykit/pkg/binder"
)

func TestRaw(t *testing.T) {
	t.Parallel()

	type webhookRequest struct {
		Payload []byte `body:"raw"`
	}

	t.Run("copies body verbatim", func(t *testing.T) {
		t.Parallel()
		body := `{"id":"evt_1",  "type":"checkout.session.completed"}`
		req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))

		var got webhookRequest
		require.NoError(t, binder.Raw(0)(req, &got))
		assert.Equal(t, body, string(got.Payload))
	})

	t.Run("limit exceeded", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(strings.Repeat("x", 11)))

		var got webhookRequest
		assert.ErrorIs(t, binder.Raw(10)(req, &got), binder.ErrBodyTooLarge)
	})

	t.Run("no raw field", func(t *testing.T) {
		t.Parallel()
		var got struct{ Name string }
		err := binder.Raw(0)(httptest.NewRequest(http.MethodPost, "/", nil), &got)
		assert.ErrorIs(t, err, binder.ErrBinderNotApplicable)
	})

	t.Run("wrong field type", func(t *testing.T) {
		t.Parallel()
		var got struct {
			Payload string `body:"raw"`
		}
		err := binder.Raw(0)(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("x")), &got)
		assert.ErrorIs(t, err, binder.ErrFailedToReadBody)
	})
}
