package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/replykit/pkg/email"
)

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	valid := email.SendEmailParams{SendTo: "user@example.com", Subject: "Hi", BodyHTML: "<p>x</p>"}

	tests := []struct {
		name   string
		mutate func(*email.SendEmailParams)
		ok     bool
	}{
		{"valid", func(*email.SendEmailParams) {}, true},
		{"missing recipient", func(p *email.SendEmailParams) { p.SendTo = "" }, false},
		{"bad recipient", func(p *email.SendEmailParams) { p.SendTo = "nope" }, false},
		{"missing subject", func(p *email.SendEmailParams) { p.Subject = " " }, false},
		{"missing body", func(p *email.SendEmailParams) { p.BodyHTML = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, email.ErrInvalidParams)
			}
		})
	}
}

func TestDevSender_SendEmail(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sender := email.NewDevSender(filepath.Join(dir, "out"))

	err := sender.SendEmail(context.Background(), email.SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "Verify your email",
		BodyHTML: "<p>click</p>",
		Tag:      "verify email",
	})
	require.NoError(t, err)

	files, err := os.ReadDir(filepath.Join(dir, "out"))
	require.NoError(t, err)
	require.Len(t, files, 2)

	for _, f := range files {
		assert.Contains(t, f.Name(), "verify_email")
		data, err := os.ReadFile(filepath.Join(dir, "out", f.Name()))
		require.NoError(t, err)

		if strings.HasSuffix(f.Name(), ".html") {
			assert.Equal(t, "<p>click</p>", string(data))
			continue
		}
		var meta map[string]any
		require.NoError(t, json.Unmarshal(data, &meta))
		assert.Equal(t, "user@example.com", meta["send_to"])
		assert.Equal(t, "verify email", meta["tag"])
	}

	t.Run("invalid params are rejected", func(t *testing.T) {
		err := sender.SendEmail(context.Background(), email.SendEmailParams{SendTo: "x"})
		assert.ErrorIs(t, err, email.ErrInvalidParams)
	})
}

func TestNewPostmarkClient(t *testing.T) {
	t.Parallel()

	base := email.Config{
		PostmarkServerToken:  "server-token",
		PostmarkAccountToken: "account-token",
		SenderEmail:          "hello@replykit.app",
		SupportEmail:         "support@replykit.app",
	}

	client, err := email.NewPostmarkClient(base)
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.True(t, base.UsePostmark())

	noToken := base
	noToken.PostmarkServerToken = ""
	_, err = email.NewPostmarkClient(noToken)
	assert.ErrorIs(t, err, email.ErrInvalidConfig)
	assert.False(t, noToken.UsePostmark())

	badSender := base
	badSender.SenderEmail = "not-an-email"
	_, err = email.NewPostmarkClient(badSender)
	assert.ErrorIs(t, err, email.ErrInvalidConfig)

	// params are validated before any network call
	err = client.SendEmail(context.Background(), email.SendEmailParams{})
	assert.ErrorIs(t, err, email.ErrInvalidParams)
}
