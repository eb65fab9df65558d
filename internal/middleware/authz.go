package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireSelf lets the request through only when the path parameter names the
// authenticated user. Must run after AuthMiddleware.
func RequireSelf(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}
		if !strings.EqualFold(strings.TrimSpace(c.Param(param)), userID) {
			abort(c, http.StatusForbidden, "You can only access your own account.")
			return
		}
		c.Next()
	}
}
