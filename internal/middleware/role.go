package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/company-task-api/internal/errors"
	"github.com/yukikurage/company-task-api/internal/models"
)

// RequireRole lets the request through only when the caller has role.
// It must run after RequireAuth.
func RequireRole(role models.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, exists := GetIdentity(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		if identity.Role != role {
			apierrors.Forbidden(c, fmt.Sprintf("Only %s users can perform this action", role))
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireCompany is RequireRole for company accounts.
func RequireCompany() gin.HandlerFunc {
	return RequireRole(models.UserTypeCompany)
}
