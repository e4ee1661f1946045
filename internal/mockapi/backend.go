// Package mockapi serves the admin API routes in-process so the dashboard can
// run without a backend. Every route waits a short, bounded delay before
// answering so loading states behave as they do against the real server.
package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"kirshify/admin/internal/client"
	"kirshify/admin/internal/models"
)

const (
	DemoEmail    = "admin@kirshify.com"
	DemoPassword = "Password123"
)

var defaultLatency = map[string]time.Duration{
	"login":  400 * time.Millisecond,
	"list":   250 * time.Millisecond,
	"me":     200 * time.Millisecond,
	"logout": 200 * time.Millisecond,
	"delete": 200 * time.Millisecond,
	"import": 200 * time.Millisecond,
	"stats":  200 * time.Millisecond,
}

type Backend struct {
	repo    *Repository
	latency map[string]time.Duration
	log     zerolog.Logger
}

type Option func(*Backend)

// WithLatency replaces every route delay with d. Non-positive values are
// ignored so the mock never answers synchronously.
func WithLatency(d time.Duration) Option {
	return func(b *Backend) {
		if d <= 0 {
			return
		}
		for k := range b.latency {
			b.latency[k] = d
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(b *Backend) {
		b.log = log
	}
}

func New(repo *Repository, opts ...Option) *Backend {
	b := &Backend{
		repo:    repo,
		latency: make(map[string]time.Duration, len(defaultLatency)),
		log:     zerolog.Nop(),
	}
	for k, v := range defaultLatency {
		b.latency[k] = v
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Do(ctx context.Context, req client.Request) (json.RawMessage, error) {
	route, handler := b.route(req)
	if handler == nil {
		return nil, notFound(fmt.Sprintf("no mock route for %s %s", req.Method, req.Path))
	}

	if err := b.wait(ctx, b.latency[route]); err != nil {
		return nil, err
	}

	out, err := handler(ctx, req)
	if err != nil {
		b.log.Debug().Err(err).Str("route", route).Msg("mock request failed")
		return nil, err
	}
	b.log.Debug().Str("route", route).Msg("mock request served")
	return marshal(out)
}

type handlerFunc func(ctx context.Context, req client.Request) (any, error)

func (b *Backend) route(req client.Request) (string, handlerFunc) {
	switch {
	case req.Method == http.MethodPost && req.Path == client.PathLogin:
		return "login", b.login
	case req.Method == http.MethodPost && req.Path == client.PathUsersImport:
		return "import", b.importUsers
	case req.Method == http.MethodGet && req.Path == client.PathMe:
		return "me", b.me
	case req.Method == http.MethodGet && req.Path == client.PathUsers:
		return "list", b.listUsers
	case req.Method == http.MethodGet && req.Path == client.PathStats:
		return "stats", b.stats
	case req.Method == http.MethodDelete && req.Path == client.PathLogout:
		return "logout", b.logout
	case req.Method == http.MethodDelete && strings.HasPrefix(req.Path, client.PathUsers+"/"):
		return "delete", b.deleteUser
	}
	return "", nil
}

func (b *Backend) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return client.TransportError("request cancelled", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (b *Backend) login(ctx context.Context, req client.Request) (any, error) {
	var creds client.Credentials
	if err := json.Unmarshal(req.Body, &creds); err != nil {
		return nil, badRequest("invalid login payload")
	}
	if creds.Email != DemoEmail || creds.Password != DemoPassword {
		return nil, statusError(http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
	}

	user := client.User{ID: "1", Name: "Kirshify Admin", Email: creds.Email, Role: "superadmin"}
	if err := b.repo.SetSession(ctx, user); err != nil {
		return nil, internal(err)
	}
	return map[string]any{"user": user}, nil
}

func (b *Backend) me(ctx context.Context, _ client.Request) (any, error) {
	user, ok, err := b.repo.Session(ctx)
	if err != nil {
		return nil, internal(err)
	}
	if !ok {
		return nil, statusError(http.StatusUnauthorized, "unauthorized", "Not authorized")
	}
	return map[string]any{"user": user}, nil
}

func (b *Backend) logout(ctx context.Context, _ client.Request) (any, error) {
	if err := b.repo.ClearSession(ctx); err != nil {
		return nil, internal(err)
	}
	return map[string]any{"ok": true}, nil
}

func (b *Backend) listUsers(ctx context.Context, req client.Request) (any, error) {
	page := intParam(req.Params.Get("page"), 1)
	perPage := intParam(req.Params.Get("perPage"), 10)
	q := strings.ToLower(req.Params.Get("q"))

	users, err := b.repo.Users(ctx)
	if err != nil {
		return nil, internal(err)
	}

	filtered := users
	if q != "" {
		filtered = make([]client.User, 0, len(users))
		for _, u := range users {
			if strings.Contains(strings.ToLower(u.Name+u.Email+u.Role), q) {
				filtered = append(filtered, u)
			}
		}
	}

	items := []client.User{}
	start := (page - 1) * perPage
	if start < len(filtered) {
		end := start + perPage
		if end > len(filtered) {
			end = len(filtered)
		}
		items = append(items, filtered[start:end]...)
	}

	return client.UserPage{
		Items:   items,
		Total:   len(filtered),
		Page:    page,
		PerPage: perPage,
	}, nil
}

func (b *Backend) deleteUser(ctx context.Context, req client.Request) (any, error) {
	id, err := url.PathUnescape(strings.TrimPrefix(req.Path, client.PathUsers+"/"))
	if err != nil {
		return nil, badRequest("invalid user id")
	}
	err = b.repo.UpdateUsers(ctx, func(users []client.User) ([]client.User, error) {
		kept := users[:0]
		for _, u := range users {
			if u.ID != id {
				kept = append(kept, u)
			}
		}
		return kept, nil
	})
	if err != nil {
		return nil, internal(err)
	}
	return map[string]any{"ok": true}, nil
}

func (b *Backend) importUsers(ctx context.Context, req client.Request) (any, error) {
	var in client.ImportRequest
	if len(req.Body) > 0 {
		if err := json.Unmarshal(req.Body, &in); err != nil {
			return nil, badRequest("invalid import payload")
		}
	}
	if in.ObjectKey != "" {
		return nil, badRequest("object imports are only supported by the API server")
	}

	imported, skipped := 0, 0
	err := b.repo.UpdateUsers(ctx, func(users []client.User) ([]client.User, error) {
		nextID := 0
		emails := make(map[string]struct{}, len(users))
		for _, u := range users {
			if n, err := strconv.Atoi(u.ID); err == nil && n > nextID {
				nextID = n
			}
			emails[strings.ToLower(u.Email)] = struct{}{}
		}

		now := time.Now().UTC()
		for _, iu := range in.Users {
			role := iu.Role
			if role == "" {
				role = "viewer"
			}
			if !models.UserRole(role).Valid() {
				return nil, badRequest(fmt.Sprintf("unknown role %q", iu.Role))
			}
			if iu.Email == "" || iu.Name == "" {
				return nil, badRequest("name and email are required")
			}
			if _, dup := emails[strings.ToLower(iu.Email)]; dup {
				skipped++
				continue
			}
			nextID++
			created := now
			users = append(users, client.User{
				ID:        strconv.Itoa(nextID),
				Name:      iu.Name,
				Email:     iu.Email,
				Role:      role,
				LastLogin: "never",
				CreatedAt: &created,
			})
			emails[strings.ToLower(iu.Email)] = struct{}{}
			imported++
		}
		return users, nil
	})
	if err != nil {
		var apiErr *client.Error
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		return nil, internal(err)
	}
	return client.ImportResult{OK: true, Imported: imported, Skipped: skipped}, nil
}

func (b *Backend) stats(ctx context.Context, _ client.Request) (any, error) {
	users, err := b.repo.Users(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return client.Stats(models.StatsFor(len(users))), nil
}

func intParam(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func marshal(v any) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, client.TransportError("encode mock response", err)
	}
	return raw, nil
}

func statusError(status int, code, message string) *client.Error {
	body, _ := json.Marshal(map[string]string{"error": code, "message": message})
	return client.StatusError(status, body)
}

func badRequest(message string) *client.Error {
	return statusError(http.StatusBadRequest, "invalid_request", message)
}

func notFound(message string) *client.Error {
	return statusError(http.StatusNotFound, "not_found", message)
}

func internal(err error) *client.Error {
	e := statusError(http.StatusInternalServerError, "internal_error", err.Error())
	e.Err = err
	return e
}
