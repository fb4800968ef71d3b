// internal/middleware/i18n.go
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/conefivem/hub/internal/i18n"
	"github.com/conefivem/hub/internal/utils"
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Handles values like "en-US,en;q=0.9,pt;q=0.8"
		c.Set(utils.ContextLang, i18n.Normalize(c.GetHeader("Accept-Language")))
		c.Next()
	}
}
