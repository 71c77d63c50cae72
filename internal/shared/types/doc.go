// Package types provides shared data structures for the kiosk backend.
//
// This package defines core types used across all backend components,
// ensuring type safety and consistent data structures.
//
// Core Types:
//   - Utterance: One unit of recognized speech text
//   - IntentResult: Classified user goal with extracted entities
//   - MenuItem: Immutable catalog entry
//   - CartLine, CartSnapshot: Order state and its persisted form
//   - OrchState: Orchestrator mode/view state
//
// Event Types:
//   - UIEvent: Closed set of UI-update variants sent to the presentation layer
//   - StatusEvent: Speech-service health signal
package types
