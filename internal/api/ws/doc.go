// Package ws is the IPC bridge between the kiosk UI and the
// orchestration core.
//
// Inbound: recognized speech results, touch actions, mode switches, and
// listening control. Outbound: UI-update events and speech-service
// status, fanned out from the event bus. Each connection has a single
// writer goroutine; slow consumers are disconnected rather than allowed
// to stall the bus.
package ws
