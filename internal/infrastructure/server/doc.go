// Package server assembles the kiosk backend.
//
// It wires every component together:
//   - HTTP routing with Gin and the middleware stack (CORS, rate
//     limiting, request ids, metrics, recovery)
//   - the WebSocket bridge to the kiosk UI
//   - the orchestration core (classifier, cart, speech sequencer,
//     fault containment)
//   - cart persistence (Redis, or in-memory when disabled)
//   - the speech service health poller
//
// Lifecycle:
//  1. Load configuration (TOML file, then environment)
//  2. Initialize logger and metrics
//  3. Load the catalog and hydrate the cart
//  4. Construct the orchestrator and its collaborators
//  5. Start the HTTP server and health poller
//  6. Graceful shutdown on signal
package server
