package binder_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/replykit/pkg/binder"
)

func TestJSON(t *testing.T) {
	t.Parallel()

	type replyRequest struct {
		Message string  `json:"message"`
		Tone    string  `json:"tone"`
		Intent  *string `json:"intent,omitempty"`
	}

	newRequest := func(body, contentType string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/generate-replies", strings.NewReader(body))
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		return req
	}

	t.Run("valid body", func(t *testing.T) {
		t.Parallel()
		var got replyRequest
		err := binder.JSON()(newRequest(`{"message":"hey","tone":"Playful","intent":"date"}`, "application/json"), &got)

		require.NoError(t, err)
		assert.Equal(t, "hey", got.Message)
		assert.Equal(t, "Playful", got.Tone)
		require.NotNil(t, got.Intent)
		assert.Equal(t, "date", *got.Intent)
	})

	t.Run("content type with charset", func(t *testing.T) {
		t.Parallel()
		var got replyRequest
		err := binder.JSON()(newRequest(`{"message":"hi"}`, "application/json; charset=utf-8"), &got)

		require.NoError(t, err)
		assert.Equal(t, "hi", got.Message)
		assert.Nil(t, got.Intent)
	})

	tests := []struct {
		name        string
		body        string
		contentType string
		wantErr     error
	}{
		{"missing content type", `{}`, "", binder.ErrMissingContentType},
		{"wrong content type", `{}`, "text/plain", binder.ErrUnsupportedMediaType},
		{"empty body", ``, "application/json", binder.ErrFailedToParseJSON},
		{"syntax error", `{"message":`, "application/json", binder.ErrFailedToParseJSON},
		{"type mismatch", `{"message":42}`, "application/json", binder.ErrFailedToParseJSON},
		{"unknown field", `{"message":"hi","admin":true}`, "application/json", binder.ErrFailedToParseJSON},
		{"trailing data", `{"message":"hi"}{"tone":"x"}`, "application/json", binder.ErrFailedToParseJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got replyRequest
			err := binder.JSON()(newRequest(tt.body, tt.contentType), &got)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("body too large", func(t *testing.T) {
		t.Parallel()
		big := `{"message":"` + strings.Repeat("a", binder.DefaultMaxJSONSize) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(big))
		req.Header.Set("Content-Type", "application/json")

		var got replyRequest
		assert.ErrorIs(t, binder.JSON()(req, &got), binder.ErrBodyTooLarge)
	})
}
