package handler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/replykit/handler"
)

func TestValidationError(t *testing.T) {
	t.Parallel()
	t.Run("empty error", func(t *testing.T) {
		t.Parallel()
		err := handler.NewValidationError()
		assert.Equal(t, "Validation failed", err.Error())
		assert.True(t, err.IsEmpty())
	})

	t.Run("single field single error", func(t *testing.T) {
		t.Parallel()
		err := handler.NewValidationError()
		err.Add("username", "is required")

		assert.Equal(t, "validation error: username: is required", err.Error())
		assert.False(t, err.IsEmpty())
		assert.True(t, err.Has("username"))
		assert.False(t, err.Has("password"))
		assert.Equal(t, "is required", err.Get("username"))
	})

	t.Run("multiple fields", func(t *testing.T) {
		t.Parallel()
		err := handler.NewValidationError()
		err.Add("username", "is required")
		err.Add("password", "must contain a digit")

		// fields are listed in name order
		assert.Equal(t, "validation error: password: must contain a digit, username: is required", err.Error())
	})

	t.Run("multiple errors for same field", func(t *testing.T) {
		t.Parallel()
		err := handler.NewValidationError()
		err.Add("username", "is required")
		err.Add("username", "is already taken")

		// Error() shows only first error
		assert.Contains(t, err.Error(), "username: is required")

		// But all errors are stored
		assert.Len(t, err["username"], 2)
		assert.Equal(t, "is required", err["username"][0])
		assert.Equal(t, "is already taken", err["username"][1])
	})
}
