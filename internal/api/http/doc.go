// Package http exposes the kiosk REST surface: health, session state,
// menu and cart access for the touch UI, checkout, speech voices, and an
// operator diagnostics endpoint backed by the fault log.
package http
