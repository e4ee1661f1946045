package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"kirshify/admin/internal/middleware"
	"kirshify/admin/internal/models"
	"kirshify/admin/internal/service"
	"kirshify/admin/internal/storage"
)

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	LastLogin string    `json:"lastLogin"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h HandlerSet) toUserResponse(user models.User) userResponse {
	lastLogin := "never"
	if user.LastLoginAt != nil {
		lastLogin = humanize.RelTime(*user.LastLoginAt, h.now(), "ago", "from now")
	}
	return userResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		LastLogin: lastLogin,
		CreatedAt: user.CreatedAt,
	}
}

func respondError(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": message})
}

// fail maps a service error onto the public error body.
func (h HandlerSet) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
	case errors.Is(err, service.ErrUnauthenticated):
		respondError(c, http.StatusUnauthorized, "unauthorized", "Not authorized")
	case errors.Is(err, service.ErrSelfDelete):
		respondError(c, http.StatusBadRequest, "cannot_delete_self", "You cannot delete your own account")
	case errors.Is(err, service.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		respondError(c, http.StatusNotFound, "not_found", "User not found")
	case errors.Is(err, storage.ErrImportNotFound):
		respondError(c, http.StatusNotFound, "not_found", "Import file not found")
	case errors.Is(err, storage.ErrImportTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, "too_large", "Import file is too large")
	default:
		_ = c.Error(err)
		h.log.Error().
			Err(err).
			Str("path", c.FullPath()).
			Str("request_id", middleware.RequestIDFrom(c)).
			Msg("request failed")
		respondError(c, http.StatusInternalServerError, "internal_error", "Internal Server Error")
	}
}
