package domain

import (
	"time"

	"github.com/google/uuid"
)

// Wallet is an on-chain address registered with the console.
// RoleIDs is never empty once persisted.
// MaxWalletRoles caps the number of roles a wallet can hold.
const MaxWalletRoles = 20

type Wallet struct {
	ID           uuid.UUID      `json:"id"`
	Address      string         `json:"address"`
	Label        string         `json:"label"`
	RoleIDs      []uuid.UUID    `json:"role_ids"`
	Currency     *string        `json:"currency,omitempty"`
	IsActive     bool           `json:"is_active"`
	Description  *string        `json:"description,omitempty"`
	Tags         []string       `json:"tags"`
	Metadata     map[string]any `json:"metadata"`
	LastActivity *time.Time     `json:"last_activity,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	// Roles is populated from RoleIDs on read; it is not persisted.
	Roles []RoleSummary `json:"roles,omitempty"`
}

// HasRole reports whether roleID is assigned to the wallet.
func (w *Wallet) HasRole(roleID uuid.UUID) bool {
	for _, id := range w.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// WalletStats is a snapshot of wallet counts. Total always equals Active + Inactive.
type WalletStats struct {
	Total    int64             `json:"total"`
	Active   int64             `json:"active"`
	Inactive int64             `json:"inactive"`
	ByRole   []RoleWalletCount `json:"by_role"`
}

// RoleWalletCount is the number of active wallets carrying a role.
type RoleWalletCount struct {
	RoleID uuid.UUID `json:"role_id"`
	Name   string    `json:"name"`
	Count  int64     `json:"count"`
}

// UniqueIDs returns ids with duplicates removed, preserving first-seen order.
func UniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
