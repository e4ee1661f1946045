package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kirshify/admin/internal/models"
)

// RequireRole lets through users whose role ranks at or above floor. It must
// run after Auth.
func RequireRole(floor models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthorized", "Not authorized")
			return
		}

		if !user.Role.AtLeast(floor) {
			abort(c, http.StatusForbidden, "forbidden", "Your role does not allow this action")
			return
		}

		c.Next()
	}
}
