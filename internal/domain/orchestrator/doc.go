// Package orchestrator is the interaction core of the kiosk.
//
// It owns the session state (mode, view, listening/processing flags),
// turns recognized utterances into intents, dispatches intents to
// handlers that mutate the cart and the view, and narrates every outcome
// through the speech sequencer. Touch input takes the same handler path
// with a synthetic intent.
//
// Entry points run behind the fault guard: a panic anywhere in the
// pipeline resets the session to a usable state instead of reaching the
// host process.
package orchestrator
