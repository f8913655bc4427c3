package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"haoshi-console/internal/models"
)

const contextKeyPrincipal = "principal"

// Authenticate requires a valid Bearer token and stores its principal in the context.
func Authenticate(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		p, err := tokens.Parse(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(contextKeyPrincipal, p)
		c.Next()
	}
}

// RequireRole rejects principals below the required role.
func RequireRole(required models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := FromContext(c)
		if !ok || !HasRole(p.Role, required) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": ErrForbidden.Error()})
			return
		}
		c.Next()
	}
}

// RequireAdmin allows administrators only.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := FromContext(c)
		if !ok || !CanManageUsers(p) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": ErrForbidden.Error()})
			return
		}
		c.Next()
	}
}

// FromContext returns the authenticated principal.
func FromContext(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(contextKeyPrincipal)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
