package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wallet-registry/internal/core/domain"
	"wallet-registry/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository using PostgreSQL.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, address, label, roles, currency, is_active, description, tags, metadata, last_activity, created_at, updated_at`

// Create inserts a new wallet.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (` + walletColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.Address, w.Label, w.RoleIDs, w.Currency, w.IsActive,
		w.Description, w.Tags, w.Metadata, w.LastActivity, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return wrapWriteErr("insert wallet", err)
	}
	return nil
}

// GetByID fetches a wallet by primary key.
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	return r.scanWallet(r.pool.QueryRow(ctx, query, id))
}

// GetByAddress fetches a wallet by its on-chain address.
func (r *WalletRepo) GetByAddress(ctx context.Context, address string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE address = $1`
	return r.scanWallet(r.pool.QueryRow(ctx, query, address))
}

// List fetches wallets with filtering and pagination, newest first.
func (r *WalletRepo) List(ctx context.Context, params ports.WalletListParams) ([]domain.Wallet, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIdx))
		args = append(args, *params.IsActive)
		argIdx++
	}
	if params.RoleID != nil {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(roles)", argIdx))
		args = append(args, *params.RoleID)
		argIdx++
	}
	if params.Currency != "" {
		conditions = append(conditions, fmt.Sprintf("currency = $%d", argIdx))
		args = append(args, params.Currency)
		argIdx++
	}
	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(label ILIKE $%d OR address ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}
	if params.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(tags)", argIdx))
		args = append(args, params.Tag)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM wallets %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count wallets: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.Limit
	dataQuery := fmt.Sprintf(`SELECT %s FROM wallets %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		walletColumns, where, argIdx, argIdx+1)
	args = append(args, params.Limit, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	wallets := []domain.Wallet{}
	for rows.Next() {
		w, err := r.scanWallet(rows)
		if err != nil {
			return nil, 0, err
		}
		wallets = append(wallets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate wallets: %w", err)
	}

	return wallets, total, nil
}

// Update writes the fields set in ch in one statement. Columns that ch
// leaves nil are not touched, so concurrent AddRole / RemoveRole / SetActive
// calls are never overwritten. A role replacement only applies while the
// stored list still equals ch.ExpectedRoleIDs.
func (r *WalletRepo) Update(ctx context.Context, id uuid.UUID, ch ports.WalletChanges) (*domain.Wallet, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if ch.Address != nil {
		set("address", *ch.Address)
	}
	if ch.Label != nil {
		set("label", *ch.Label)
	}
	if ch.RoleIDs != nil {
		set("roles", ch.RoleIDs)
	}
	if ch.Currency != nil {
		set("currency", ch.Currency.Value)
	}
	if ch.Description != nil {
		set("description", ch.Description.Value)
	}
	if ch.Tags != nil {
		set("tags", ch.Tags)
	}
	if ch.Metadata != nil {
		set("metadata", ch.Metadata)
	}
	if ch.IsActive != nil {
		set("is_active", *ch.IsActive)
	}

	where := "id = $1"
	if ch.RoleIDs != nil {
		args = append(args, ch.ExpectedRoleIDs)
		where += fmt.Sprintf(" AND roles = $%d", len(args))
	}

	query := fmt.Sprintf(`UPDATE wallets SET %s WHERE %s RETURNING %s`,
		strings.Join(sets, ", "), where, walletColumns)

	w, err := r.scanWallet(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, wrapWriteErr("update wallet", err)
	}
	return w, nil
}

// SetActive sets is_active and returns the stored row, or nil if the wallet does not exist.
func (r *WalletRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.Wallet, error) {
	query := `UPDATE wallets SET is_active = $2, updated_at = NOW()
		WHERE id = $1 RETURNING ` + walletColumns
	return r.scanWallet(r.pool.QueryRow(ctx, query, id, active))
}

// AddRole appends roleID when it is not assigned yet and the wallet is
// below domain.MaxWalletRoles.
func (r *WalletRepo) AddRole(ctx context.Context, id, roleID uuid.UUID) (*domain.Wallet, error) {
	query := `UPDATE wallets SET roles = array_append(roles, $2), updated_at = NOW()
		WHERE id = $1 AND NOT ($2 = ANY(roles)) AND cardinality(roles) < $3
		RETURNING ` + walletColumns
	return r.scanWallet(r.pool.QueryRow(ctx, query, id, roleID, domain.MaxWalletRoles))
}

// RemoveRole drops roleID in one conditional statement. The row only
// matches while roleID is assigned and at least one other role remains,
// so concurrent removals can never leave a wallet without roles.
func (r *WalletRepo) RemoveRole(ctx context.Context, id, roleID uuid.UUID) (*domain.Wallet, error) {
	query := `UPDATE wallets SET roles = array_remove(roles, $2), updated_at = NOW()
		WHERE id = $1 AND $2 = ANY(roles) AND cardinality(roles) > 1
		RETURNING ` + walletColumns
	return r.scanWallet(r.pool.QueryRow(ctx, query, id, roleID))
}

// TouchActivity records the last on-chain activity time.
func (r *WalletRepo) TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) (*domain.Wallet, error) {
	query := `UPDATE wallets SET last_activity = $2, updated_at = NOW()
		WHERE id = $1 RETURNING ` + walletColumns
	return r.scanWallet(r.pool.QueryRow(ctx, query, id, at))
}

// Stats returns wallet totals and the number of active wallets per role.
func (r *WalletRepo) Stats(ctx context.Context) (*domain.WalletStats, error) {
	s := &domain.WalletStats{ByRole: []domain.RoleWalletCount{}}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE NOT is_active)
		 FROM wallets`,
	).Scan(&s.Total, &s.Active, &s.Inactive)
	if err != nil {
		return nil, fmt.Errorf("wallet stats: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT wr.id, wr.name, COUNT(*) AS wallet_count
		 FROM wallets w
		 CROSS JOIN LATERAL unnest(w.roles) AS assigned(role_id)
		 JOIN wallet_roles wr ON wr.id = assigned.role_id
		 WHERE w.is_active
		 GROUP BY wr.id, wr.name
		 ORDER BY wallet_count DESC, wr.name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("wallet stats by role: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.RoleWalletCount
		if err := rows.Scan(&c.RoleID, &c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("scan role wallet count: %w", err)
		}
		s.ByRole = append(s.ByRole, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role wallet counts: %w", err)
	}
	return s, nil
}

func (r *WalletRepo) scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(
		&w.ID, &w.Address, &w.Label, &w.RoleIDs, &w.Currency, &w.IsActive,
		&w.Description, &w.Tags, &w.Metadata, &w.LastActivity, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	if w.Tags == nil {
		w.Tags = []string{}
	}
	if w.Metadata == nil {
		w.Metadata = map[string]any{}
	}
	return w, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input literal inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
