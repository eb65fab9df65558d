package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"grubgo/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := UserID(c)
		c.String(http.StatusOK, id)
	})
	r.GET("/users/:id", handlers...)
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	auth := services.NewAuthService("secret", bcrypt.MinCost, time.Hour)
	id := uuid.New()
	token, err := auth.IssueAccessToken(id)
	require.NoError(t, err)
	reset, err := auth.IssueResetToken(id)
	require.NoError(t, err)

	r := newRouter(AuthMiddleware(auth))

	w := do(r, "/users/x", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/users/x", reset)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "reset grants are not access tokens")

	w = do(r, "/users/x", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.String(), w.Body.String())
}

func TestRequireSelf(t *testing.T) {
	auth := services.NewAuthService("secret", bcrypt.MinCost, time.Hour)
	id := uuid.New()
	token, err := auth.IssueAccessToken(id)
	require.NoError(t, err)

	r := newRouter(AuthMiddleware(auth), RequireSelf("id"))

	assert.Equal(t, http.StatusOK, do(r, "/users/"+id.String(), token).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/users/"+uuid.NewString(), token).Code)
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

func TestRateLimit(t *testing.T) {
	deny := &stubLimiter{allow: false}
	assert.Equal(t, http.StatusTooManyRequests, do(newRouter(RateLimit(deny)), "/users/x", "").Code)
	assert.Len(t, deny.keys, 1)

	down := &stubLimiter{err: errors.New("redis down")}
	assert.Equal(t, http.StatusOK, do(newRouter(RateLimit(down)), "/users/x", "").Code)

	assert.Equal(t, http.StatusOK, do(newRouter(RateLimit(nil)), "/users/x", "").Code)
}
