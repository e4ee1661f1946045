package client

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

const (
	PathLogin       = "/api/auth/login"
	PathMe          = "/api/auth/me"
	PathLogout      = "/api/auth/logout"
	PathUsers       = "/api/admin/users"
	PathUsersImport = "/api/admin/users/import"
	PathStats       = "/api/admin/stats"
)

func UserPath(id string) string {
	return PathUsers + "/" + url.PathEscape(id)
}

type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	LastLogin string     `json:"lastLogin,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ListParams struct {
	Page    int
	PerPage int
	Query   string
}

func (p ListParams) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("perPage", strconv.Itoa(p.PerPage))
	v.Set("q", p.Query)
	return v
}

type UserPage struct {
	Items   []User `json:"items"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
}

type ImportUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
	Password string `json:"password,omitempty"`
}

// ImportRequest carries either inline users or the key of a JSON array already
// uploaded to the imports bucket.
type ImportRequest struct {
	Users     []ImportUser `json:"users,omitempty"`
	ObjectKey string       `json:"objectKey,omitempty"`
}

type ImportResult struct {
	OK        bool   `json:"ok"`
	Imported  int    `json:"imported"`
	Skipped   int    `json:"skipped,omitempty"`
	ObjectKey string `json:"objectKey,omitempty"`
}

type Stats struct {
	Users       int `json:"users"`
	ActiveFarms int `json:"activeFarms"`
	Revenue     int `json:"revenue"`
}

type userEnvelope struct {
	User User `json:"user"`
}

func (c *Client) Login(ctx context.Context, creds Credentials) (User, error) {
	resp, err := c.Post(ctx, PathLogin, creds)
	if err != nil {
		return User{}, err
	}
	var out userEnvelope
	if err := resp.Decode(&out); err != nil {
		return User{}, err
	}
	return out.User, nil
}

func (c *Client) Me(ctx context.Context) (User, error) {
	resp, err := c.Get(ctx, PathMe, nil)
	if err != nil {
		return User{}, err
	}
	var out userEnvelope
	if err := resp.Decode(&out); err != nil {
		return User{}, err
	}
	return out.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.Delete(ctx, PathLogout)
	return err
}

func (c *Client) ListUsers(ctx context.Context, p ListParams) (UserPage, error) {
	resp, err := c.Get(ctx, PathUsers, p.Values())
	if err != nil {
		return UserPage{}, err
	}
	var out UserPage
	if err := resp.Decode(&out); err != nil {
		return UserPage{}, err
	}
	if out.Items == nil {
		out.Items = []User{}
	}
	return out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.Delete(ctx, UserPath(id))
	return err
}

func (c *Client) ImportUsers(ctx context.Context, req ImportRequest) (ImportResult, error) {
	resp, err := c.Post(ctx, PathUsersImport, req)
	if err != nil {
		return ImportResult{}, err
	}
	var out ImportResult
	if err := resp.Decode(&out); err != nil {
		return ImportResult{}, err
	}
	return out, nil
}

func (c *Client) Stats(ctx context.Context) (Stats, error) {
	resp, err := c.Get(ctx, PathStats, nil)
	if err != nil {
		return Stats{}, err
	}
	var out Stats
	if err := resp.Decode(&out); err != nil {
		return Stats{}, err
	}
	return out, nil
}
