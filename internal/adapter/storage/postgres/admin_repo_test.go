package postgres

import (
	"context"
	"testing"
	"time"

	"wallet-registry/internal/core/domain"
	"wallet-registry/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdmin() *domain.Admin {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Admin{
		ID:           uuid.New(),
		Username:     "admin",
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$salt$hash",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func adminRows(a *domain.Admin) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "username", "password_hash", "is_active", "created_at", "updated_at"}).
		AddRow(a.ID, a.Username, a.PasswordHash, a.IsActive, a.CreatedAt, a.UpdatedAt)
}

func TestAdminRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAdminRepo(mock)
	a := newTestAdmin()

	mock.ExpectExec("INSERT INTO admins").
		WithArgs(a.ID, a.Username, a.PasswordHash, a.IsActive, a.CreatedAt, a.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Create(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepo_Create_Duplicate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAdminRepo(mock)
	a := newTestAdmin()

	mock.ExpectExec("INSERT INTO admins").
		WithArgs(a.ID, a.Username, a.PasswordHash, a.IsActive, a.CreatedAt, a.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = repo.Create(context.Background(), a)
	assert.ErrorIs(t, err, ports.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepo_GetByUsername(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAdminRepo(mock)
	a := newTestAdmin()

	mock.ExpectQuery("SELECT .+ FROM admins WHERE username").
		WithArgs("admin").
		WillReturnRows(adminRows(a))

	result, err := repo.GetByUsername(context.Background(), "admin")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, a.ID, result.ID)
	assert.Equal(t, a.PasswordHash, result.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAdminRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM admins WHERE id").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "password_hash", "is_active", "created_at", "updated_at"}))

	result, err := repo.GetByID(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}
