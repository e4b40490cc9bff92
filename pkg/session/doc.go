// Package session manages server-side sessions keyed by an opaque token.
//
// A Manager ties together a Transport, which carries the token between client
// and server, and a Store, which persists session state. The default
// transport is an HMAC-signed cookie; stores ship for memory (development and
// tests) and Redis (production).
//
// Sessions in this service exist only for authenticated users. Anonymous
// callers carry no session at all.
//
//	manager := session.New(
//	    session.WithStore(session.NewRedisStore(client, "")),
//	    session.WithSecret(cfg.SessionSecret),
//	)
//	defer manager.Close()
//
//	r.Use(manager.Middleware)
//	r.With(manager.RequireAuth).Get("/api/user", ...)
//
// Authenticate always issues a fresh token, so a token known before login is
// useless afterwards. Activity on a session slides its expiry forward up to
// the configured max lifetime; the store write happens on a background worker
// and is throttled by Config.ActivityUpdateThreshold.
//
// # Errors
//
//   - ErrSessionNotFound: no token on the request or no stored session
//   - ErrSessionExpired: the session passed its expiry
//   - ErrInvalidSession: the store rejected a malformed session
package session
