package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kirshify/admin/internal/models"
)

var userRowColumns = []string{"id", "name", "email", "password_hash", "role", "last_login_at", "created_at", "updated_at"}

func setupMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestUserRepository_FindByEmail(t *testing.T) {
	mock := setupMockPool(t)
	repo := NewUserRepository(mock)

	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	lastLogin := created.Add(48 * time.Hour)
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WithArgs("riya@kirshify.com").
		WillReturnRows(pgxmock.NewRows(userRowColumns).
			AddRow("u1", "Riya", "riya@kirshify.com", []byte("hash"), "manager", &lastLogin, created, created))

	user, err := repo.FindByEmail(context.Background(), "riya@kirshify.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, models.UserRoleManager, user.Role)
	require.NotNil(t, user.LastLoginAt)
	assert.True(t, lastLogin.Equal(*user.LastLoginAt))
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	mock := setupMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_List(t *testing.T) {
	mock := setupMockPool(t)
	repo := NewUserRepository(mock)

	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE \(name \|\| email \|\| role\) ILIKE \$1`).
		WithArgs("%vik%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery(`SELECT (.+) FROM users\s+WHERE (.+) ILIKE \$1\s+ORDER BY created_at, id\s+LIMIT \$2 OFFSET \$3`).
		WithArgs("%vik%", 2, 2).
		WillReturnRows(pgxmock.NewRows(userRowColumns).
			AddRow("u13", "Vikram 13", "user13@kirshify.com", []byte{}, "manager", nil, created, created).
			AddRow("u21", "Vikram 21", "user21@kirshify.com", []byte{}, "viewer", nil, created, created))

	users, total, err := repo.List(context.Background(), UserFilter{Query: " vik ", Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, users, 2)
	assert.Equal(t, "u13", users[0].ID)
	assert.Nil(t, users[0].LastLoginAt)
}

func TestUserRepository_List_EmptyIsNotNil(t *testing.T) {
	mock := setupMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs("%%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT (.+) FROM users`).
		WithArgs("%%", 10, 0).
		WillReturnRows(pgxmock.NewRows(userRowColumns))

	users, total, err := repo.List(context.Background(), UserFilter{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestUserRepository_Delete(t *testing.T) {
	tests := []struct {
		name    string
		result  pgconn.CommandTag
		execErr error
		wantErr error
	}{
		{name: "deleted", result: pgxmock.NewResult("DELETE", 1)},
		{name: "missing", result: pgxmock.NewResult("DELETE", 0), wantErr: ErrUserNotFound},
		{name: "db failure", execErr: errors.New("conn reset"), wantErr: errors.New("conn reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := setupMockPool(t)
			repo := NewUserRepository(mock)

			exp := mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs("u7")
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(tt.result)
			}

			err := repo.Delete(context.Background(), "u7")
			switch {
			case tt.wantErr == nil:
				assert.NoError(t, err)
			case errors.Is(tt.wantErr, ErrUserNotFound):
				assert.ErrorIs(t, err, ErrUserNotFound)
			default:
				assert.EqualError(t, err, tt.wantErr.Error())
			}
		})
	}
}

func TestUserRepository_CreateIfAbsent(t *testing.T) {
	mock := setupMockPool(t)
	repo := NewUserRepository(mock)

	user := models.User{ID: "u1", Name: "Neha", Email: "neha@kirshify.com", Role: models.UserRoleViewer, PasswordHash: []byte{}}

	mock.ExpectExec(`INSERT INTO users (.+) ON CONFLICT \(email\) DO NOTHING`).
		WithArgs("u1", "Neha", "neha@kirshify.com", []byte{}, "viewer").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO users (.+) ON CONFLICT \(email\) DO NOTHING`).
		WithArgs("u1", "Neha", "neha@kirshify.com", []byte{}, "viewer").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	created, err := repo.CreateIfAbsent(context.Background(), user)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateIfAbsent(context.Background(), user)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestUserRepository_TouchLastLogin(t *testing.T) {
	mock := setupMockPool(t)
	repo := NewUserRepository(mock)

	at := time.Now().UTC()
	mock.ExpectExec(`UPDATE users SET last_login_at = \$2`).
		WithArgs("u1", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.TouchLastLogin(context.Background(), "u1", at))
}

func TestUserRepository_Count(t *testing.T) {
	mock := setupMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(30))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, n)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%%", likePattern(""))
	assert.Equal(t, "%  amit %", likePattern("  amit "))
	assert.Equal(t, `%50\%\_off\\%`, likePattern(`50%_off\`))
}
