// Package middleware provides the HTTP middleware for the kiosk API:
// CORS for the kiosk UI origin, per-client rate limiting, and request-id
// tagging for log correlation.
package middleware
