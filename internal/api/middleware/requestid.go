package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/VoxKiosk/OrderOS/backend/internal/shared/id"
)

// requestIDKey is the gin context key carrying the request id.
const requestIDKey = "request_id"

// RequestID tags every request with an identifier, honoring one supplied
// by the caller so UI-side logs correlate with backend logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = id.NewRequestID().String()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

// GetRequestID returns the request id set by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	if rid, ok := c.Get(requestIDKey); ok {
		if s, ok := rid.(string); ok {
			return s
		}
	}
	return ""
}
