package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"kirshify/admin/internal/models"
	"kirshify/admin/internal/service"
)

const (
	currentUserKey    = "current_user"
	currentSessionKey = "current_session"
)

// Authenticator resolves a session token. Tokens that do not name a live
// session yield service.ErrUnauthenticated.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, models.Session, error)
}

// Auth reads the session cookie and stores the signed-in user on the context.
func Auth(auth Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "Not authorized")
			return
		}

		user, session, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				abort(c, http.StatusUnauthorized, "unauthorized", "Not authorized")
				return
			}
			_ = c.Error(err)
			abort(c, http.StatusInternalServerError, "internal_error", "Internal Server Error")
			return
		}

		c.Set(currentUserKey, user)
		c.Set(currentSessionKey, session)

		c.Next()
	}
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

func abort(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": message})
}
