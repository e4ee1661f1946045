package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"kirshify/admin/internal/config"
	"kirshify/admin/internal/middleware"
	"kirshify/admin/internal/models"
	"kirshify/admin/internal/service"
)

// AuthAPI is implemented by *service.AuthService.
type AuthAPI interface {
	middleware.Authenticator
	Login(ctx context.Context, input service.LoginInput) (service.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// UsersAPI is implemented by *service.UserService.
type UsersAPI interface {
	List(ctx context.Context, input service.ListInput) (service.UserPage, error)
	Delete(ctx context.Context, actorID string, id string) error
	Import(ctx context.Context, input service.ImportInput) (service.ImportResult, error)
	Stats(ctx context.Context) (models.Stats, error)
}

// HealthCheck is one dependency reported by /healthz.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type HandlerSet struct {
	log    zerolog.Logger
	cfg    *config.AppConfig
	auth   AuthAPI
	users  UsersAPI
	checks []HealthCheck
	now    func() time.Time
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, auth AuthAPI, users UsersAPI, checks ...HealthCheck) HandlerSet {
	return HandlerSet{
		log:    log,
		cfg:    cfg,
		auth:   auth,
		users:  users,
		checks: checks,
		now:    time.Now,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	requireSession := middleware.Auth(h.auth, h.cfg.Security.CookieName)

	auth := router.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.DELETE("/logout", h.Logout)
		auth.GET("/me", requireSession, h.Me)
	}

	admin := router.Group("/admin", requireSession)

	readers := admin.Group("", middleware.RequireRole(models.UserRoleManager))
	readers.GET("/users", h.ListUsers)
	readers.GET("/stats", h.Stats)

	writers := admin.Group("", middleware.RequireRole(models.UserRoleAdmin))
	writers.DELETE("/users/:id", h.DeleteUser)
	writers.POST("/users/import", h.ImportUsers)
}
