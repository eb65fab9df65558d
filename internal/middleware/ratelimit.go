package middleware

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Allower is satisfied by *ratelimit.Limiter.
type Allower interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit throttles by client IP. A nil limiter disables it, and a failing
// backend lets the request through.
func RateLimit(l Allower) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		ok, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Printf("[ratelimit][warn] %v; allowing request", err)
			c.Next()
			return
		}
		if !ok {
			abort(c, http.StatusTooManyRequests, "Too many requests. Please slow down.")
			return
		}
		c.Next()
	}
}
