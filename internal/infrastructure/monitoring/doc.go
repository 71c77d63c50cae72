/*
Package monitoring provides Prometheus metrics for the kiosk backend.

It tracks the interaction pipeline (utterances, intents, fallback
classifications), cart mutations, the speech output queue, checkout
outcomes, contained faults, and the HTTP/WebSocket surface.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	metrics.RecordIntent("add_item", false)

Expose via the standard Prometheus endpoint:

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
