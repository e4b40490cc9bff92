// Package templates holds the transactional email bodies as templ components.
package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Render renders a component to a string.
func Render(ctx context.Context, tpl templ.Component) (string, error) {
	var sb strings.Builder
	if err := tpl.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// layout wraps body in the shared email chrome.
func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!doctype html><html><head><meta charset="utf-8"><title>`+
			templ.EscapeString(title)+
			`</title></head><body style="font-family:-apple-system,Helvetica,Arial,sans-serif;color:#1f2937;max-width:560px;margin:0 auto;padding:24px">`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `<p style="color:#6b7280;font-size:12px;margin-top:32px">ReplyKit</p></body></html>`)
		return err
	})
}

func button(url, label string) string {
	return `<p><a href="` + templ.EscapeString(url) + `" style="display:inline-block;background:#ec4899;color:#fff;padding:12px 20px;border-radius:8px;text-decoration:none">` +
		templ.EscapeString(label) + `</a></p>`
}

func paragraph(text string) string {
	return `<p>` + templ.EscapeString(text) + `</p>`
}

func raw(parts ...string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, strings.Join(parts, ""))
		return err
	})
}
