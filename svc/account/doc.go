// Package account implements credential management for ReplyKit users:
// registration with a free subscription, password login, single-use email
// verification and password reset tokens.
//
// Tokens are 32 random bytes encoded as base64url. Only their SHA-256 digest
// is stored; consuming a token clears it in the same statement that checks
// it, so a token can be used once.
//
// Persistence is provided through the Store interface, implemented by
// svc/storage/postgres and svc/storage/memory. Emails go through a Mailer;
// EmailMailer renders pkg/email/templates and also confirms paid plans as a
// subscription.Notifier.
package account
