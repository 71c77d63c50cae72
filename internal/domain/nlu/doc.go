// Package nlu resolves free-text utterances to intents.
//
// Classification never fails: the primary path delegates to an external
// NLU service behind a circuit breaker, and any transport error or
// malformed response drops to a deterministic local keyword matcher.
// The matcher is an ordered rule list; earlier rules outrank later ones,
// so specific category mentions beat generic browsing and add/order
// phrasing beats a plain "cart" mention.
package nlu
