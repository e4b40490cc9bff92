// Package sanitizer cleans user-supplied text before it is validated, stored
// or forwarded to the language model.
//
// Every function is pure and safe for concurrent use. Functions compose with
// Apply:
//
//	msg = sanitizer.Apply(msg, sanitizer.RemoveControlChars, strings.TrimSpace)
package sanitizer
