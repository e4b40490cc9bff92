package validator_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/replykit/pkg/validator"
)

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("all rules pass", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.Required("username", "a@b.co"),
			validator.ValidEmail("username", "a@b.co"),
		)
		assert.NoError(t, err)
	})

	t.Run("collects every failure", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.Required("username", "  "),
			validator.ValidEmail("username", "  "),
			validator.StrongPassword("password", "short", validator.DefaultPasswordPolicy()),
		)
		require.Error(t, err)

		ve := validator.ExtractValidationErrors(fmt.Errorf("register: %w", err))
		require.Len(t, ve, 3)
		assert.True(t, ve.Has("password"))
		assert.Len(t, ve.Fields()["username"], 2)
		assert.True(t, validator.IsValidationError(err))
		assert.False(t, validator.IsValidationError(errors.New("other")))
	})
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"user@example.com":        true,
		"first.last+tag@mail.io":  true,
		"":                        false,
		"plainaddress":            false,
		"user@localhost":          false,
		"user@example..com":       false,
		"Name <user@example.com>": false,
		"@example.com":            false,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, want, validator.ValidEmail("email", in).Check())
		})
	}
}

func TestStrongPassword(t *testing.T) {
	t.Parallel()

	p := validator.DefaultPasswordPolicy()
	tests := map[string]bool{
		"password":               false,
		"password1":              true,
		"Sup3r-secret":           true,
		"12345678":               false,
		"short1":                 false,
		strings.Repeat("a1", 65): false,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, want, validator.StrongPassword("password", in, p).Check())
		})
	}

	t.Run("bcrypt byte limit", func(t *testing.T) {
		t.Parallel()
		at := strings.Repeat("a1", validator.BcryptMaxBytes/2)
		require.Len(t, at, 72)
		assert.True(t, validator.StrongPassword("password", at, p).Check())
		assert.False(t, validator.StrongPassword("password", at+"b", p).Check())

		// 38 runes, 73 bytes
		multibyte := strings.Repeat("é", 35) + "1bc"
		require.Len(t, multibyte, 73)
		assert.False(t, validator.StrongPassword("password", multibyte, p).Check())
	})

	t.Run("message names the byte cap", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(validator.StrongPassword("password", "x", p))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at most 72 bytes")
	})
}

func TestOneOfAndMaxLen(t *testing.T) {
	t.Parallel()

	assert.True(t, validator.OneOf("tier", "pro", []string{"basic", "pro"}).Check())
	assert.False(t, validator.OneOf("tier", "free", []string{"basic", "pro"}).Check())
	assert.True(t, validator.MaxLen("text", "héllo", 5).Check())
	assert.False(t, validator.MaxLen("text", "hello!", 5).Check())
}
