package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ClientIP resolves the originating client address behind a reverse proxy.
// X-Real-IP wins, then the first hop of X-Forwarded-For, then gin's own
// resolution.
func ClientIP(c *gin.Context) string {
	if ip := strings.TrimSpace(c.GetHeader("X-Real-IP")); ip != "" {
		return ip
	}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return c.ClientIP()
}
