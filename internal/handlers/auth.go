package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kirshify/admin/internal/middleware"
	"kirshify/admin/internal/service"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Email and password are required")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	h.setSessionCookie(c, result.Token, int(h.cfg.Security.SessionTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{"user": h.toUserResponse(result.User)})
}

func (h HandlerSet) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Not authorized")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": h.toUserResponse(user)})
}

// Logout always clears the cookie, even if the session could not be removed.
func (h HandlerSet) Logout(c *gin.Context) {
	if token, err := c.Cookie(h.cfg.Security.CookieName); err == nil {
		if err := h.auth.Logout(c.Request.Context(), token); err != nil {
			h.log.Warn().Err(err).Str("request_id", middleware.RequestIDFrom(c)).Msg("logout failed")
		}
	}

	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h HandlerSet) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		h.cfg.Security.CookieName,
		value,
		maxAge,
		"/",
		h.cfg.Security.CookieDomain,
		h.cfg.Security.CookieSecure,
		true,
	)
}
