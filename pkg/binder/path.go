package binder

import (
	"fmt"
	"net/http"
)

// Path creates a path parameter binder using the provided extractor,
// for example chi.URLParam. Only fields tagged `path:"name"` are bound.
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return fmt.Errorf("%w: extractor function is nil", ErrInvalidPath)
		}
		return bindTagged(v, "path", func(name string) []string {
			if value := extractor(r, name); value != "" {
				return []string{value}
			}
			return nil
		}, ErrInvalidPath)
	}
}

// Header binds request headers into fields tagged `header:"Name"`.
func Header() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindTagged(v, "header", r.Header.Values, ErrInvalidHeader)
	}
}
