// Package token produces the opaque secrets used for sessions, email
// verification and password reset.
//
// Random returns a URL-safe token to hand to the user, Hash the digest to
// store at rest. Sign and Verify attach an HMAC so a value can travel through
// an untrusted channel such as a cookie.
package token
