package models

import "time"

type UserRole string

const (
	UserRoleViewer     UserRole = "viewer"
	UserRoleManager    UserRole = "manager"
	UserRoleAdmin      UserRole = "admin"
	UserRoleSuperAdmin UserRole = "superadmin"
)

var roleRank = map[UserRole]int{
	UserRoleViewer:     1,
	UserRoleManager:    2,
	UserRoleAdmin:      3,
	UserRoleSuperAdmin: 4,
}

func (r UserRole) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks at or above floor. Unknown roles rank below
// everything.
func (r UserRole) AtLeast(floor UserRole) bool {
	rank, ok := roleRank[r]
	return ok && rank >= roleRank[floor]
}

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	Role         UserRole
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Session struct {
	ID        string
	UserID    string
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Stats is the dashboard summary. ActiveFarms and Revenue are derived from the
// user count until the farm ledger exists.
type Stats struct {
	Users       int `json:"users"`
	ActiveFarms int `json:"activeFarms"`
	Revenue     int `json:"revenue"`
}

func StatsFor(users int) Stats {
	return Stats{
		Users:       users,
		ActiveFarms: users * 33 / 100,
		Revenue:     users * 150,
	}
}
