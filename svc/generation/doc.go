// Package generation turns reply requests into model calls.
//
// Requests arrive in one of three shapes (say_it_better, tone_reply and the
// mode-less legacy shape). Decode maps the wire payload onto exactly one
// Request variant. Facade bounds each Capability call with a deadline, trims
// and numbers the variants, and serves a fixed fallback reply when the model
// output cannot be parsed. OpenAIClient is the production Capability.
package generation
