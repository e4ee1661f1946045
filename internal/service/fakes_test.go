package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"kirshify/admin/internal/config"
	"kirshify/admin/internal/models"
	"kirshify/admin/internal/repository"
)

type memUsers struct {
	mu      sync.Mutex
	byID    map[string]models.User
	touched map[string]time.Time
	listErr error
}

func newMemUsers(users ...models.User) *memUsers {
	m := &memUsers{byID: map[string]models.User{}, touched: map[string]time.Time{}}
	for _, u := range users {
		m.byID[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[user.ID] = user
	return nil
}

func (m *memUsers) CreateIfAbsent(_ context.Context, user models.User) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email {
			return false, nil
		}
	}
	m.byID[user.ID] = user
	return true, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) List(_ context.Context, f repository.UserFilter) ([]models.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var matched []models.User
	for _, u := range m.byID {
		if strings.Contains(strings.ToLower(u.Name+u.Email+string(u.Role)), strings.ToLower(f.Query)) {
			matched = append(matched, u)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	items := []models.User{}
	if f.Offset < len(matched) {
		end := f.Offset + f.Limit
		if end > len(matched) {
			end = len(matched)
		}
		items = append(items, matched[f.Offset:end]...)
	}
	return items, len(matched), nil
}

func (m *memUsers) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID), nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched[id] = at
	return nil
}

type memSessions struct {
	mu   sync.Mutex
	byID map[string]models.Session
}

func newMemSessions() *memSessions {
	return &memSessions{byID: map[string]models.Session{}}
}

func (m *memSessions) Create(_ context.Context, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.ID] = s
	return nil
}

func (m *memSessions) GetByID(_ context.Context, id string) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return s, nil
}

func (m *memSessions) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.byID {
		if s.ExpiresAt.Before(now) {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}

type fakeArchive struct {
	putFn func(ctx context.Context, key string, data []byte) error
	getFn func(ctx context.Context, key string) ([]byte, error)
}

func (f fakeArchive) PutImport(ctx context.Context, key string, data []byte) error {
	return f.putFn(ctx, key, data)
}

func (f fakeArchive) GetImport(ctx context.Context, key string) ([]byte, error) {
	return f.getFn(ctx, key)
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{
			JWTSecret:  "test-secret",
			SessionTTL: time.Hour,
			CookieName: "kirshify_session",
		},
	}
}
