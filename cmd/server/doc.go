// Package main is the entry point for the OrderOS kiosk backend.
//
// The backend sits between the kiosk UI and the external speech/NLU
// services:
//
//	Kiosk UI (webview) → Go backend → NLU service (intent classification)
//	                               → Speech service (synthesis, health)
//	                               → Redis (cart persistence)
//
// The server provides:
//   - WebSocket bridge for speech results, touch actions, and UI events
//   - REST API for menu, cart, checkout, and diagnostics
//   - FIFO speech output sequencing
//   - Fault containment with a rolling diagnostic log
//
// Configuration comes from an optional TOML file overlaid by environment
// variables; CLI flags select the file and the port.
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown
package main
