// Package middleware holds the request guards. Both guards attach the
// resolved caller to the context under the same keys, so handlers never
// care which mechanism authenticated the request.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MayankVir/alonie-backend/internal/httputil"
	"github.com/MayankVir/alonie-backend/internal/models"
	"github.com/MayankVir/alonie-backend/internal/service"
)

// Context keys set by the guards.
const (
	ContextUserIDKey = "userID"
	ContextUserKey   = "user"
)

// AuthMiddleware is the local-token guard: it verifies the bearer token's
// signature and expiry against the shared secret and loads the account.
type AuthMiddleware struct {
	jwt   service.JWTService
	users service.UserService
}

// NewAuthMiddleware creates the local-token guard.
func NewAuthMiddleware(jwt service.JWTService, users service.UserService) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users}
}

// RequireAuth rejects the request with 401 unless a valid token maps to an
// active account.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			abortUnauthorized(c, "No authorization header")
			return
		}

		userID, err := m.jwt.ParseUserID(token)
		if err != nil {
			abortUnauthorized(c, "Invalid token")
			return
		}

		user, err := m.users.Get(c.Request.Context(), userID)
		if err != nil || !user.IsActive {
			abortUnauthorized(c, "Invalid token")
			return
		}

		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// RequireAdmin rejects non-admin callers. It must run after a guard.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !user.IsAdmin() {
			httputil.Fail(c, http.StatusForbidden, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// BearerToken extracts the bearer token from the Authorization header.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	if len(header) >= 7 && strings.EqualFold(header[:7], "bearer ") {
		header = header[7:]
	}
	return header, header != ""
}

// CurrentUser returns the guard-attached account.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	httputil.Fail(c, http.StatusUnauthorized, message)
	c.Abort()
}
