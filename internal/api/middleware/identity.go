package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/MayankVir/alonie-backend/internal/identity"
	"github.com/MayankVir/alonie-backend/internal/service"
)

// TokenVerifier is the slice of the identity provider client the guard
// needs; the oracle verifies a token and returns the subject.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*identity.Identity, error)
}

// IdentityMiddleware is the external-identity guard: token verification is
// delegated to the identity provider, and the local mirror account is
// resolved (or provisioned on first sight).
type IdentityMiddleware struct {
	verifier TokenVerifier
	identity service.IdentityService
}

// NewIdentityMiddleware creates the external-identity guard.
func NewIdentityMiddleware(verifier TokenVerifier, identitySvc service.IdentityService) *IdentityMiddleware {
	return &IdentityMiddleware{verifier: verifier, identity: identitySvc}
}

// RequireAuth rejects the request with 401 unless the provider verifies the
// token and the mirrored account is active.
func (m *IdentityMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			abortUnauthorized(c, "No authorization header")
			return
		}

		ident, err := m.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			abortUnauthorized(c, "Invalid token")
			return
		}

		user, err := m.identity.ResolveExternal(c.Request.Context(), ident)
		if err != nil {
			abortUnauthorized(c, "Invalid token")
			return
		}

		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextUserKey, user)
		c.Next()
	}
}
