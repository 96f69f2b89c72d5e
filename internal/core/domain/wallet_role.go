package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletRole is a named category wallets are tagged with (e.g. "treasury").
// Roles are never hard-deleted; deactivation flips IsActive.
type WalletRole struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	Color       *string   `json:"color,omitempty"` // #RRGGBB, UI only
	Icon        *string   `json:"icon,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Summary returns the compact form embedded in wallet responses.
func (r *WalletRole) Summary() RoleSummary {
	return RoleSummary{
		ID:       r.ID,
		Name:     r.Name,
		IsActive: r.IsActive,
		Color:    r.Color,
		Icon:     r.Icon,
	}
}

// RoleSummary is a role reference populated into a wallet.
type RoleSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
	Color    *string   `json:"color,omitempty"`
	Icon     *string   `json:"icon,omitempty"`
}

// RoleStats is a snapshot of role counts. Total always equals Active + Inactive.
type RoleStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
}
