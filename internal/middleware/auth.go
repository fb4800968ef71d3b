// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/conefivem/hub/internal/i18n"
	"github.com/conefivem/hub/internal/models"
	"github.com/conefivem/hub/internal/services"
	"github.com/conefivem/hub/internal/utils"
)

// SessionAuth resolves Supabase access tokens from the Authorization header or the session cookie.
type SessionAuth struct {
	cookieName string
	auditor    services.Auditor
}

func NewSessionAuth(cookieName string, auditor services.Auditor) *SessionAuth {
	return &SessionAuth{cookieName: cookieName, auditor: auditor}
}

func (a *SessionAuth) token(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if a.cookieName != "" {
		if cookie, err := c.Cookie(a.cookieName); err == nil {
			return cookie
		}
	}
	return ""
}

// authenticate sets the session values on the context. A present but invalid
// token is audited.
func (a *SessionAuth) authenticate(c *gin.Context) bool {
	token := a.token(c)
	if token == "" {
		return false
	}

	claims, err := utils.ValidateSessionToken(token)
	if err != nil {
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Warn("Rejected session token")
		if a.auditor != nil {
			a.auditor.Log(c.Request.Context(), models.AuditEntry{
				Action:    models.AuditInvalidToken,
				IPAddress: utils.ClientIP(c),
				UserAgent: c.Request.UserAgent(),
				Severity:  models.SeverityWarning,
				Metadata:  models.JSONB{"endpoint": c.Request.URL.Path},
			})
		}
		return false
	}

	c.Set(utils.ContextUserID, claims.UserID())
	c.Set(utils.ContextUserEmail, claims.Email)
	c.Set(utils.ContextIsAdmin, claims.IsAdmin())
	return true
}

func (a *SessionAuth) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth never rejects; handlers that need a user decide themselves.
func (a *SessionAuth) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		a.authenticate(c)
		c.Next()
	}
}

// AdminRequired must run after AuthRequired.
func (a *SessionAuth) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !utils.IsAdminFromContext(c) {
			if a.auditor != nil {
				userID, _ := utils.GetUserIDFromContext(c)
				a.auditor.Log(c.Request.Context(), models.AuditEntry{
					Action:    models.AuditUnauthorizedAccess,
					IPAddress: utils.ClientIP(c),
					UserAgent: c.Request.UserAgent(),
					Severity:  models.SeverityWarning,
					Metadata:  models.JSONB{"endpoint": c.Request.URL.Path, "user_id": userID},
				})
			}
			utils.ForbiddenResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyAccessDenied))
			c.Abort()
			return
		}
		c.Next()
	}
}
