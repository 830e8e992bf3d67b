package ratelimit

import (
	"net/http"
	"strconv"

	"agency-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware limits requests per client IP. A nil limiter disables limiting,
// and Redis errors fail open: a broken counter should never block customers
// from submitting the contact form.
func Middleware(l *Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}

		allowed, retryAfter, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.FromGin(c).Warn("rate limiter unavailable, failing open", "err", err)
			c.Next()
			return
		}
		if !allowed {
			secs := int(retryAfter.Seconds())
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, please try again later"})
			return
		}
		c.Next()
	}
}
