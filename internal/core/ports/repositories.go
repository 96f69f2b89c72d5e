package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"wallet-registry/internal/core/domain"

	"github.com/google/uuid"
)

// ErrDuplicate is returned by repositories when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate key")

// Get-style methods return (nil, nil) when no row matches.

// WalletRoleRepository defines persistence operations for wallet roles.
type WalletRoleRepository interface {
	Create(ctx context.Context, role *domain.WalletRole) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletRole, error)
	// GetByName matches case-insensitively.
	GetByName(ctx context.Context, name string) (*domain.WalletRole, error)
	List(ctx context.Context, isActive *bool) ([]domain.WalletRole, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.WalletRole, error)
	CountActiveByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
	Update(ctx context.Context, role *domain.WalletRole) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.WalletRole, error)
	// ToggleActive flips is_active in a single statement and returns the stored row.
	ToggleActive(ctx context.Context, id uuid.UUID) (*domain.WalletRole, error)
	Stats(ctx context.Context) (*domain.RoleStats, error)
}

// WalletRepository defines persistence operations for wallets.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByAddress(ctx context.Context, address string) (*domain.Wallet, error)
	List(ctx context.Context, params WalletListParams) ([]domain.Wallet, int64, error)
	// Update writes only the fields set in changes and returns the stored row.
	// Returns nil when the wallet does not exist or, for a role replacement,
	// when the stored roles no longer equal changes.ExpectedRoleIDs.
	Update(ctx context.Context, id uuid.UUID, changes WalletChanges) (*domain.Wallet, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.Wallet, error)
	// AddRole appends roleID unless already present or the wallet already holds
	// domain.MaxWalletRoles roles. Returns nil when nothing matched.
	AddRole(ctx context.Context, id, roleID uuid.UUID) (*domain.Wallet, error)
	// RemoveRole removes roleID only if it is assigned and is not the last role.
	// Returns nil when the condition did not match; the wallet is then unchanged.
	RemoveRole(ctx context.Context, id, roleID uuid.UUID) (*domain.Wallet, error)
	TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) (*domain.Wallet, error)
	Stats(ctx context.Context) (*domain.WalletStats, error)
}

// WalletChanges is a partial wallet update. Nil fields are left as stored.
type WalletChanges struct {
	Address *string
	Label   *string
	// RoleIDs replaces the list only while the stored list equals ExpectedRoleIDs.
	RoleIDs         []uuid.UUID
	ExpectedRoleIDs []uuid.UUID
	Currency        *NullableString
	Description     *NullableString
	Tags            []string
	Metadata        map[string]any
	IsActive        *bool
}

// NullableString sets a nullable column; a nil Value writes NULL.
type NullableString struct {
	Value *string
}

// Empty reports whether no field is set.
func (c WalletChanges) Empty() bool {
	return c.Address == nil && c.Label == nil && c.RoleIDs == nil && c.Currency == nil &&
		c.Description == nil && c.Tags == nil && c.Metadata == nil && c.IsActive == nil
}

// WalletListParams holds filter + pagination for listing wallets.
type WalletListParams struct {
	IsActive *bool
	RoleID   *uuid.UUID
	Currency string
	Search   string // substring of label or address
	Tag      string
	Page     int
	Limit    int
}

// AdminRepository defines persistence operations for console admins.
type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Admin, error)
	GetByUsername(ctx context.Context, username string) (*domain.Admin, error)
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}
