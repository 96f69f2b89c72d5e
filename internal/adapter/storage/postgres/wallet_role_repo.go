package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-registry/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRoleRepo implements ports.WalletRoleRepository using PostgreSQL.
type WalletRoleRepo struct {
	pool Pool
}

// NewWalletRoleRepo creates a new WalletRoleRepo.
func NewWalletRoleRepo(pool Pool) *WalletRoleRepo {
	return &WalletRoleRepo{pool: pool}
}

const roleColumns = `id, name, description, is_active, color, icon, created_at, updated_at`

// Create inserts a new wallet role.
func (r *WalletRoleRepo) Create(ctx context.Context, role *domain.WalletRole) error {
	query := `INSERT INTO wallet_roles (` + roleColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		role.ID, role.Name, role.Description, role.IsActive,
		role.Color, role.Icon, role.CreatedAt, role.UpdatedAt,
	)
	if err != nil {
		return wrapWriteErr("insert wallet role", err)
	}
	return nil
}

// GetByID fetches a role by primary key.
func (r *WalletRoleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletRole, error) {
	query := `SELECT ` + roleColumns + ` FROM wallet_roles WHERE id = $1`
	return r.scanRole(r.pool.QueryRow(ctx, query, id))
}

// GetByName fetches a role by name, ignoring case.
func (r *WalletRoleRepo) GetByName(ctx context.Context, name string) (*domain.WalletRole, error) {
	query := `SELECT ` + roleColumns + ` FROM wallet_roles WHERE LOWER(name) = LOWER($1)`
	return r.scanRole(r.pool.QueryRow(ctx, query, name))
}

// List returns roles ordered by name, optionally filtered by is_active.
func (r *WalletRoleRepo) List(ctx context.Context, isActive *bool) ([]domain.WalletRole, error) {
	query := `SELECT ` + roleColumns + ` FROM wallet_roles`
	var args []any
	if isActive != nil {
		query += ` WHERE is_active = $1`
		args = append(args, *isActive)
	}
	query += ` ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list wallet roles: %w", err)
	}
	return r.collect(rows)
}

// ListByIDs returns the roles whose ids are in ids, ordered by name.
func (r *WalletRoleRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.WalletRole, error) {
	if len(ids) == 0 {
		return []domain.WalletRole{}, nil
	}

	query := `SELECT ` + roleColumns + ` FROM wallet_roles WHERE id = ANY($1) ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list wallet roles by ids: %w", err)
	}
	return r.collect(rows)
}

// CountActiveByIDs counts how many of ids reference active roles.
func (r *WalletRoleRepo) CountActiveByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM wallet_roles WHERE id = ANY($1) AND is_active = TRUE`, ids,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active wallet roles: %w", err)
	}
	return count, nil
}

// Update writes all mutable fields of role.
func (r *WalletRoleRepo) Update(ctx context.Context, role *domain.WalletRole) error {
	query := `UPDATE wallet_roles
		SET name = $1, description = $2, is_active = $3, color = $4, icon = $5, updated_at = $6
		WHERE id = $7`

	tag, err := r.pool.Exec(ctx, query,
		role.Name, role.Description, role.IsActive, role.Color, role.Icon, role.UpdatedAt, role.ID,
	)
	if err != nil {
		return wrapWriteErr("update wallet role", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet role not found: %s", role.ID)
	}
	return nil
}

// SetActive sets is_active and returns the stored row, or nil if the role does not exist.
func (r *WalletRoleRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.WalletRole, error) {
	query := `UPDATE wallet_roles SET is_active = $2, updated_at = NOW()
		WHERE id = $1 RETURNING ` + roleColumns
	return r.scanRole(r.pool.QueryRow(ctx, query, id, active))
}

// ToggleActive flips is_active in one statement.
func (r *WalletRoleRepo) ToggleActive(ctx context.Context, id uuid.UUID) (*domain.WalletRole, error) {
	query := `UPDATE wallet_roles SET is_active = NOT is_active, updated_at = NOW()
		WHERE id = $1 RETURNING ` + roleColumns
	return r.scanRole(r.pool.QueryRow(ctx, query, id))
}

// Stats counts roles in a single pass.
func (r *WalletRoleRepo) Stats(ctx context.Context) (*domain.RoleStats, error) {
	s := &domain.RoleStats{}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE NOT is_active)
		 FROM wallet_roles`,
	).Scan(&s.Total, &s.Active, &s.Inactive)
	if err != nil {
		return nil, fmt.Errorf("wallet role stats: %w", err)
	}
	return s, nil
}

func (r *WalletRoleRepo) collect(rows pgx.Rows) ([]domain.WalletRole, error) {
	defer rows.Close()

	roles := []domain.WalletRole{}
	for rows.Next() {
		role, err := r.scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet roles: %w", err)
	}
	return roles, nil
}

func (r *WalletRoleRepo) scanRole(row pgx.Row) (*domain.WalletRole, error) {
	role := &domain.WalletRole{}
	err := row.Scan(
		&role.ID, &role.Name, &role.Description, &role.IsActive,
		&role.Color, &role.Icon, &role.CreatedAt, &role.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet role: %w", err)
	}
	return role, nil
}
