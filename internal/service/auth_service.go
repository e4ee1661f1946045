package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"kirshify/admin/internal/config"
	"kirshify/admin/internal/ids"
	"kirshify/admin/internal/models"
	"kirshify/admin/internal/repository"
	"kirshify/admin/internal/security"
)

type AuthService struct {
	users    UserStore
	sessions SessionStore
	cfg      *config.AppConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(
	users UserStore,
	sessions SessionStore,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	email := normalizeEmail(input.Email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	session := models.Session{
		ID:        ids.New(),
		UserID:    user.ID,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.Security.SessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return LoginResult{}, fmt.Errorf("create session: %w", err)
	}

	token, err := security.IssueSessionToken(
		s.cfg.Security.JWTSecret,
		user.ID,
		session.ID,
		string(user.Role),
		now,
		s.cfg.Security.SessionTTL,
	)
	if err != nil {
		return LoginResult{}, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("stamp last login failed")
	} else {
		user.LastLoginAt = &now
	}

	return LoginResult{Token: token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

// Authenticate resolves a session token to its live session and user.
// Every failure other than a storage error is ErrUnauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.User, models.Session, error) {
	claims, err := security.ParseSessionToken(token, s.cfg.Security.JWTSecret)
	if err != nil {
		return models.User{}, models.Session{}, ErrUnauthenticated
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return models.User{}, models.Session{}, ErrUnauthenticated
		}
		return models.User{}, models.Session{}, err
	}
	if session.UserID != claims.Subject {
		return models.User{}, models.Session{}, ErrUnauthenticated
	}
	if !session.ExpiresAt.After(s.now()) {
		if err := s.sessions.DeleteByID(ctx, session.ID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
			s.log.Warn().Err(err).Str("session_id", session.ID).Msg("drop expired session failed")
		}
		return models.User{}, models.Session{}, ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, models.Session{}, ErrUnauthenticated
		}
		return models.User{}, models.Session{}, err
	}
	return user, session, nil
}

// Logout ends the session named by token. Missing, invalid and already
// revoked tokens are not errors.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := security.ParseSessionToken(token, s.cfg.Security.JWTSecret)
	if err != nil {
		return nil
	}
	if err := s.sessions.DeleteByID(ctx, claims.SessionID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return err
	}
	return nil
}

// EnsureAdmin creates the configured superadmin if it does not exist yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, admin config.AdminConfig) (bool, error) {
	email := normalizeEmail(admin.Email)
	if email == "" || admin.Password == "" {
		return false, nil
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return false, err
	}

	hash, err := security.HashPassword(admin.Password)
	if err != nil {
		return false, err
	}

	name := strings.TrimSpace(admin.Name)
	if name == "" {
		name = "Kirshify Admin"
	}
	user := models.User{
		ID:           ids.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.UserRoleSuperAdmin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	s.log.Info().Str("email", email).Msg("bootstrap admin created")
	return true, nil
}

func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
