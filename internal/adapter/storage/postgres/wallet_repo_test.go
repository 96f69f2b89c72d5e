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

func newTestWallet(roleIDs ...uuid.UUID) *domain.Wallet {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Wallet{
		ID:           uuid.New(),
		Address:      "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		Label:        "Treasury hot wallet",
		RoleIDs:      roleIDs,
		Currency:     strPtr("USDC"),
		IsActive:     true,
		Description:  nil,
		Tags:         []string{"ops"},
		Metadata:     map[string]any{"network": "mainnet"},
		LastActivity: nil,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func walletColumnNames() []string {
	return []string{"id", "address", "label", "roles", "currency", "is_active", "description",
		"tags", "metadata", "last_activity", "created_at", "updated_at"}
}

func walletRows(wallets ...*domain.Wallet) *pgxmock.Rows {
	rows := pgxmock.NewRows(walletColumnNames())
	for _, w := range wallets {
		rows.AddRow(w.ID, w.Address, w.Label, w.RoleIDs, w.Currency, w.IsActive, w.Description,
			w.Tags, w.Metadata, w.LastActivity, w.CreatedAt, w.UpdatedAt)
	}
	return rows
}

func TestWalletRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.ID, w.Address, w.Label, w.RoleIDs, w.Currency, w.IsActive,
			w.Description, w.Tags, w.Metadata, w.LastActivity, w.CreatedAt, w.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), w)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Create_DuplicateAddress(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.ID, w.Address, w.Label, w.RoleIDs, w.Currency, w.IsActive,
			w.Description, w.Tags, w.Metadata, w.LastActivity, w.CreatedAt, w.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_wallets_address"})

	err = repo.Create(context.Background(), w)
	assert.ErrorIs(t, err, ports.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	roleID := uuid.New()
	w := newTestWallet(roleID)

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE id").
		WithArgs(w.ID).
		WillReturnRows(walletRows(w))

	result, err := repo.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.Address, result.Address)
	assert.Equal(t, []uuid.UUID{roleID}, result.RoleIDs)
	assert.Equal(t, "USDC", *result.Currency)
	assert.Equal(t, "mainnet", result.Metadata["network"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByAddress_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE address").
		WithArgs("unknown").
		WillReturnRows(pgxmock.NewRows(walletColumnNames()))

	result, err := repo.GetByAddress(context.Background(), "unknown")
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_List_NoFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w1, w2 := newTestWallet(uuid.New()), newTestWallet(uuid.New())

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM wallets`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery("SELECT .+ FROM wallets ORDER BY created_at DESC LIMIT").
		WithArgs(20, 0).
		WillReturnRows(walletRows(w1, w2))

	wallets, total, err := repo.List(context.Background(), ports.WalletListParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, wallets, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_List_WithFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	roleID := uuid.New()
	active := true
	w := newTestWallet(roleID)

	params := ports.WalletListParams{
		IsActive: &active,
		RoleID:   &roleID,
		Currency: "USDC",
		Search:   "hot_",
		Tag:      "ops",
		Page:     2,
		Limit:    10,
	}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM wallets WHERE is_active = .+ AND .+ = ANY\(roles\) AND currency = .+ILIKE.+ = ANY\(tags\)`).
		WithArgs(true, roleID, "USDC", `%hot\_%`, "ops").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(11)))
	mock.ExpectQuery("SELECT .+ FROM wallets WHERE .+ ORDER BY created_at DESC LIMIT").
		WithArgs(true, roleID, "USDC", `%hot\_%`, "ops", 10, 10).
		WillReturnRows(walletRows(w))

	wallets, total, err := repo.List(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, int64(11), total)
	require.Len(t, wallets, 1)
	assert.Equal(t, w.ID, wallets[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Update_OnlyChangedColumns(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())
	w.Label = "renamed"

	// A label-only update must not write roles or is_active.
	mock.ExpectQuery(`^UPDATE wallets SET updated_at = NOW\(\), label = \$2 WHERE id = \$1 RETURNING id, address`).
		WithArgs(w.ID, "renamed").
		WillReturnRows(walletRows(w))

	result, err := repo.Update(context.Background(), w.ID, ports.WalletChanges{Label: strPtr("renamed")})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "renamed", result.Label)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Update_ClearsNullableColumns(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())
	w.Currency = nil
	active := false

	mock.ExpectQuery(`^UPDATE wallets SET updated_at = NOW\(\), currency = \$2, tags = \$3, is_active = \$4 WHERE id = \$1 RETURNING`).
		WithArgs(w.ID, (*string)(nil), []string{}, false).
		WillReturnRows(walletRows(w))

	result, err := repo.Update(context.Background(), w.ID, ports.WalletChanges{
		Currency: &ports.NullableString{},
		Tags:     []string{},
		IsActive: &active,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Nil(t, result.Currency)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Update_ReplaceRolesGuarded(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	oldRole, newRole := uuid.New(), uuid.New()
	w := newTestWallet(newRole)

	mock.ExpectQuery(`^UPDATE wallets SET updated_at = NOW\(\), roles = \$2 WHERE id = \$1 AND roles = \$3 RETURNING`).
		WithArgs(w.ID, []uuid.UUID{newRole}, []uuid.UUID{oldRole}).
		WillReturnRows(walletRows(w))

	result, err := repo.Update(context.Background(), w.ID, ports.WalletChanges{
		RoleIDs:         []uuid.UUID{newRole},
		ExpectedRoleIDs: []uuid.UUID{oldRole},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, []uuid.UUID{newRole}, result.RoleIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Update_NoMatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	id, role := uuid.New(), uuid.New()

	mock.ExpectQuery(`UPDATE wallets SET .+ WHERE id = \$1 AND roles = \$3`).
		WithArgs(id, []uuid.UUID{role}, []uuid.UUID{uuid.Nil}).
		WillReturnRows(pgxmock.NewRows(walletColumnNames()))

	result, err := repo.Update(context.Background(), id, ports.WalletChanges{
		RoleIDs:         []uuid.UUID{role},
		ExpectedRoleIDs: []uuid.UUID{uuid.Nil},
	})
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Update_DuplicateAddress(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	id := uuid.New()
	address := "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

	mock.ExpectQuery("UPDATE wallets").
		WithArgs(id, address).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_wallets_address"})

	_, err = repo.Update(context.Background(), id, ports.WalletChanges{Address: &address})
	assert.ErrorIs(t, err, ports.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_AddRole(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	existing, added := uuid.New(), uuid.New()
	w := newTestWallet(existing, added)

	mock.ExpectQuery(`UPDATE wallets SET roles = array_append\(roles, .+\).+NOT \(.+ = ANY\(roles\)\) AND cardinality\(roles\) < \$3`).
		WithArgs(w.ID, added, domain.MaxWalletRoles).
		WillReturnRows(walletRows(w))

	result, err := repo.AddRole(context.Background(), w.ID, added)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, []uuid.UUID{existing, added}, result.RoleIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_RemoveRole(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	kept, removed := uuid.New(), uuid.New()
	w := newTestWallet(kept)

	mock.ExpectQuery(`UPDATE wallets SET roles = array_remove\(roles, .+\).+ = ANY\(roles\) AND cardinality\(roles\) > 1`).
		WithArgs(w.ID, removed).
		WillReturnRows(walletRows(w))

	result, err := repo.RemoveRole(context.Background(), w.ID, removed)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, []uuid.UUID{kept}, result.RoleIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_RemoveRole_ConditionNotMet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	id, roleID := uuid.New(), uuid.New()

	mock.ExpectQuery("UPDATE wallets SET roles = array_remove").
		WithArgs(id, roleID).
		WillReturnRows(pgxmock.NewRows(walletColumnNames()))

	result, err := repo.RemoveRole(context.Background(), id, roleID)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_TouchActivity(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	at := time.Now().UTC().Truncate(time.Microsecond)
	w := newTestWallet(uuid.New())
	w.LastActivity = &at

	mock.ExpectQuery("UPDATE wallets SET last_activity").
		WithArgs(w.ID, at).
		WillReturnRows(walletRows(w))

	result, err := repo.TouchActivity(context.Background(), w.ID, at)
	require.NoError(t, err)
	require.NotNil(t, result.LastActivity)
	assert.True(t, at.Equal(*result.LastActivity))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Stats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	roleID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\).+FROM wallets$`).
		WillReturnRows(pgxmock.NewRows([]string{"total", "active", "inactive"}).
			AddRow(int64(7), int64(4), int64(3)))
	mock.ExpectQuery(`unnest\(w.roles\)`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "wallet_count"}).
			AddRow(roleID, "treasury", int64(4)))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), stats.Total)
	assert.Equal(t, stats.Total, stats.Active+stats.Inactive)
	require.Len(t, stats.ByRole, 1)
	assert.Equal(t, roleID, stats.ByRole[0].RoleID)
	assert.Equal(t, int64(4), stats.ByRole[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, escapeLike(`50% off_now\`))
}
