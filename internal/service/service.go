package service

import (
	"context"
	"errors"
	"time"

	"kirshify/admin/internal/models"
	"kirshify/admin/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrInvalidInput       = errors.New("invalid input")
	ErrSelfDelete         = errors.New("cannot delete the signed-in user")
	ErrUserNotFound       = repository.ErrUserNotFound
)

// UserStore is implemented by *repository.UserRepository.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	CreateIfAbsent(ctx context.Context, user models.User) (bool, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	List(ctx context.Context, f repository.UserFilter) ([]models.User, int, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// SessionStore is implemented by *repository.SessionRepository.
type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	GetByID(ctx context.Context, id string) (models.Session, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ImportArchive is implemented by *storage.ImportStore.
type ImportArchive interface {
	PutImport(ctx context.Context, key string, data []byte) error
	GetImport(ctx context.Context, key string) ([]byte, error)
}
