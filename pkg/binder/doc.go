// Package binder binds HTTP request data to Go structs.
//
// Each binder reads one source and only touches fields tagged for it:
//
//	type verifyRequest struct {
//		Token string `path:"token"`
//	}
//
//	type webhookRequest struct {
//		Payload   []byte `body:"raw"`
//		Signature string `header:"Stripe-Signature"`
//	}
//
// JSON decodes application/json bodies in strict mode (unknown fields and
// trailing data are rejected) with a 1 MB limit. Raw copies the body bytes
// untouched, which signature verification requires. Path uses an extractor
// such as chi.URLParam, Header reads request headers.
//
// All errors wrap one of the package sentinels so callers can map them to a
// 400-class response.
package binder
