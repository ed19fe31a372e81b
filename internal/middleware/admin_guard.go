package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ifmis-helpdesk/internal/models"
)

type adminChecker interface {
	IsAdmin(ctx context.Context, principal *models.StaffPrincipal) bool
}

// RequireAdmin must run after RequireStaff. Members outside the admin group are sent to login.
func RequireAdmin(guard adminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := CurrentStaff(c)
		if principal == nil || guard == nil || !guard.IsAdmin(c.Request.Context(), principal) {
			redirectToLogin(c)
			return
		}
		c.Next()
	}
}
