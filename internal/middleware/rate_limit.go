// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/conefivem/hub/internal/i18n"
	"github.com/conefivem/hub/internal/models"
	"github.com/conefivem/hub/internal/ratelimit"
	"github.com/conefivem/hub/internal/services"
	"github.com/conefivem/hub/internal/utils"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-IP token bucket for coarse flood protection.
type RateLimiter struct {
	visitors map[string]*visitor
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
	}

	// Clean up old visitors every minute
	go rl.cleanupVisitors()

	return rl
}

func (rl *RateLimiter) cleanupVisitors() {
	for {
		time.Sleep(time.Minute)
		rl.mtx.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(rl.visitors, ip)
			}
		}
		rl.mtx.Unlock()
	}
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getVisitor(c.ClientIP()).Allow() {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED",
				i18n.T(utils.GetLangFromContext(c), i18n.KeyRateLimited), nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

var generalLimiter = NewRateLimiter(rate.Every(100*time.Millisecond), 20)

// GeneralRateLimit allows a sustained 10 requests per second per IP with bursts of 20.
func GeneralRateLimit() gin.HandlerFunc {
	return generalLimiter.Middleware()
}

// WindowRateLimit applies a fixed-window policy from the shared store, keyed by scope and client IP.
// Store failures let the request through.
func WindowRateLimit(store ratelimit.Store, scope string, policy ratelimit.Policy, auditor services.Auditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := utils.ClientIP(c)
		key := ratelimit.Key(scope, ip)

		decision, err := store.Check(c.Request.Context(), key, policy)
		if err != nil {
			logrus.WithError(err).WithField("key", key).Error("Rate limit store unavailable, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			if auditor != nil {
				auditor.Log(c.Request.Context(), models.AuditEntry{
					Action:    models.AuditRateLimitExceeded,
					IPAddress: ip,
					UserAgent: c.Request.UserAgent(),
					Severity:  models.SeverityWarning,
					Metadata:  models.JSONB{"key": key, "endpoint": c.Request.URL.Path},
				})
			}
			utils.RateLimitedResponse(c, decision.Remaining, decision.ResetAt)
			c.Abort()
			return
		}
		c.Next()
	}
}
