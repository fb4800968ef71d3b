// internal/utils/request.go
package utils

import "github.com/gin-gonic/gin"

const unknownClient = "unknown"

// ClientIP resolves the caller through gin, which only honours forwarding
// headers when the peer is a trusted proxy.
func ClientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return unknownClient
}

func UserAgent(c *gin.Context) string {
	if ua := c.Request.UserAgent(); ua != "" {
		return ua
	}
	return unknownClient
}
