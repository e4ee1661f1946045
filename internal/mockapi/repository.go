package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"kirshify/admin/internal/client"
	"kirshify/admin/internal/kv"
)

// Keys under which the mock keeps its state. They are namespaced so a mock
// profile never collides with anything a real session stores.
const (
	SessionKey = "kirshify_mock_user"
	UsersKey   = "kirshify_mock_users_v1"
)

const seedSize = 30

var (
	seedNames = []string{"Amit", "Riya", "Suresh", "Neha", "Vikram", "Priya", "Rahul", "Karan"}
	seedRoles = []string{"viewer", "manager", "admin"}
)

// Repository is the mock user collection and login marker, persisted through a
// pluggable kv.Store.
type Repository struct {
	mu    sync.Mutex
	store kv.Store
	now   func() time.Time
}

func NewRepository(store kv.Store) *Repository {
	return &Repository{store: store, now: time.Now}
}

// Users returns the full collection, seeding it on first use.
func (r *Repository) Users(ctx context.Context) ([]client.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadUsers(ctx)
}

// UpdateUsers applies fn to the collection and persists the result atomically
// with respect to other repository calls.
func (r *Repository) UpdateUsers(ctx context.Context, fn func([]client.User) ([]client.User, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.loadUsers(ctx)
	if err != nil {
		return err
	}
	next, err := fn(users)
	if err != nil {
		return err
	}
	return r.save(ctx, UsersKey, next)
}

func (r *Repository) Session(ctx context.Context) (client.User, bool, error) {
	raw, err := r.store.Get(ctx, SessionKey)
	if errors.Is(err, kv.ErrNotFound) {
		return client.User{}, false, nil
	}
	if err != nil {
		return client.User{}, false, err
	}
	var user client.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return client.User{}, false, fmt.Errorf("decode %s: %w", SessionKey, err)
	}
	return user, true, nil
}

func (r *Repository) SetSession(ctx context.Context, user client.User) error {
	return r.save(ctx, SessionKey, user)
}

func (r *Repository) ClearSession(ctx context.Context) error {
	return r.store.Delete(ctx, SessionKey)
}

func (r *Repository) loadUsers(ctx context.Context) ([]client.User, error) {
	raw, err := r.store.Get(ctx, UsersKey)
	if errors.Is(err, kv.ErrNotFound) {
		users := seedUsers(r.now())
		if err := r.save(ctx, UsersKey, users); err != nil {
			return nil, err
		}
		return users, nil
	}
	if err != nil {
		return nil, err
	}

	var users []client.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("decode %s: %w", UsersKey, err)
	}
	return users, nil
}

func (r *Repository) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.store.Set(ctx, key, raw)
}

func seedUsers(now time.Time) []client.User {
	users := make([]client.User, 0, seedSize)
	for i := 0; i < seedSize; i++ {
		created := now.Add(-time.Duration(i) * 24 * time.Hour).UTC()
		users = append(users, client.User{
			ID:        fmt.Sprint(i + 1),
			Name:      fmt.Sprintf("%s %d", seedNames[i%len(seedNames)], i+1),
			Email:     fmt.Sprintf("user%d@kirshify.com", i+1),
			Role:      seedRoles[(i+1)%len(seedRoles)],
			LastLogin: fmt.Sprintf("%d days ago", (i*7)%10+1),
			CreatedAt: &created,
		})
	}
	return users
}
