package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/replykit/handler"
)

func TestContextValueOK(t *testing.T) {
	t.Parallel()

	type account struct{ ID int64 }

	t.Run("typed value", func(t *testing.T) {
		t.Parallel()
		key := handler.NewContextKey("account")
		want := &account{ID: 7}
		ctx := context.WithValue(context.Background(), key, want)

		got, ok := handler.ContextValueOK[*account](ctx, key)
		require.True(t, ok)
		assert.Same(t, want, got)
	})

	t.Run("zero value is distinguishable from missing", func(t *testing.T) {
		t.Parallel()
		key := handler.NewContextKey("count")
		ctx := context.WithValue(context.Background(), key, 0)

		got, ok := handler.ContextValueOK[int](ctx, key)
		assert.True(t, ok)
		assert.Zero(t, got)

		_, ok = handler.ContextValueOK[int](ctx, handler.NewContextKey("count"))
		assert.False(t, ok, "keys with the same name are distinct")
	})

	t.Run("wrong type", func(t *testing.T) {
		t.Parallel()
		key := handler.NewContextKey("usage")
		ctx := context.WithValue(context.Background(), key, "ten")

		got, ok := handler.ContextValueOK[int](ctx, key)
		assert.False(t, ok)
		assert.Zero(t, got)
	})

	t.Run("interface value", func(t *testing.T) {
		t.Parallel()
		key := handler.NewContextKey("cause")
		cause := errors.New("upstream closed")
		ctx := context.WithValue(context.Background(), key, cause)

		got, ok := handler.ContextValueOK[error](ctx, key)
		require.True(t, ok)
		assert.Equal(t, cause, got)
	})

	t.Run("key prints its name", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "session", handler.NewContextKey("session").String())
	})
}

func TestContext_DelegatesToRequest(t *testing.T) {
	t.Parallel()

	key := handler.NewContextKey("user_id")
	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	reqCtx, cancel := context.WithCancel(context.WithValue(req.Context(), key, int64(7)))
	req = req.WithContext(reqCtx)
	w := httptest.NewRecorder()

	ctx := handler.NewContext(w, req)

	assert.Same(t, req, ctx.Request())
	assert.Equal(t, w, ctx.ResponseWriter())
	id, ok := handler.ContextValueOK[int64](ctx, key)
	require.True(t, ok)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, ctx.Err())

	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
