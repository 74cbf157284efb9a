package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/company-task-api/internal/constants"
	apierrors "github.com/yukikurage/company-task-api/internal/errors"
	"github.com/yukikurage/company-task-api/internal/services"
)

// TokenVerifier resolves a bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(token string) (services.Identity, error)
}

// RequireAuth checks the bearer token and stores the caller's identity in the context
func RequireAuth(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(constants.HeaderAuthorization)
		if header == "" {
			apierrors.Unauthorized(c, "Unauthorized User: No token")
			c.Abort()
			return
		}

		token, ok := strings.CutPrefix(header, constants.BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			apierrors.Unauthorized(c, "Unauthorized User: Malformed authorization header")
			c.Abort()
			return
		}

		identity, err := tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			message := "Unauthorized User: Invalid token"
			if errors.Is(err, services.ErrTokenExpired) {
				message = "Unauthorized User: Token expired"
			}
			apierrors.Unauthorized(c, message)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyIdentity, identity)
		c.Set(constants.ContextKeyUserID, identity.ID)
		c.Next()
	}
}

// GetIdentity retrieves the caller's identity from context
func GetIdentity(c *gin.Context) (services.Identity, bool) {
	value, exists := c.Get(constants.ContextKeyIdentity)
	if !exists {
		return services.Identity{}, false
	}

	identity, ok := value.(services.Identity)
	if !ok || identity.ID == 0 {
		return services.Identity{}, false
	}
	return identity, true
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	identity, ok := GetIdentity(c)
	if !ok {
		return 0, false
	}
	return identity.ID, true
}
