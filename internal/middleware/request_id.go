package middleware

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
)

// RequestID attaches a unique request identifier to every request,
// honoring an inbound X-Request-ID header when present
func RequestID() gin.HandlerFunc {
	return requestid.New()
}
