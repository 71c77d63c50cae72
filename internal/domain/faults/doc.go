// Package faults contains failures instead of letting them take the kiosk
// down.
//
// Guard wraps the orchestration entry points with panic recovery and runs
// a recovery hook that puts the session back into a usable state. Every
// contained fault lands in a fixed-size diagnostic log that operators can
// read over HTTP.
package faults
