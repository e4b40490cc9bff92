// Package gate enforces tier entitlements: which tones and tools a caller may
// use and how many generations a subscription allows.
//
// Authorization and charging are split. A Ticket is issued before the model
// is called and redeemed with Charge only after a successful generation, so
// rejected or failed calls never consume usage.
package gate
