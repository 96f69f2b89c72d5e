package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestWallet_HasRole(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	w := &Wallet{RoleIDs: []uuid.UUID{a}}

	assert.True(t, w.HasRole(a))
	assert.False(t, w.HasRole(b))
	assert.False(t, (&Wallet{}).HasRole(a))
}

func TestUniqueIDs(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name string
		in   []uuid.UUID
		want []uuid.UUID
	}{
		{"no duplicates", []uuid.UUID{a, b}, []uuid.UUID{a, b}},
		{"duplicates keep first order", []uuid.UUID{b, a, b, c, a}, []uuid.UUID{b, a, c}},
		{"empty", nil, []uuid.UUID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UniqueIDs(tt.in))
		})
	}
}

func TestWalletRole_Summary(t *testing.T) {
	color := "#00ff88"
	role := &WalletRole{ID: uuid.New(), Name: "treasury", Description: "ignored", IsActive: true, Color: &color}

	s := role.Summary()
	assert.Equal(t, role.ID, s.ID)
	assert.Equal(t, "treasury", s.Name)
	assert.True(t, s.IsActive)
	assert.Equal(t, &color, s.Color)
	assert.Nil(t, s.Icon)
}

func TestAuditAction_Constants(t *testing.T) {
	assert.Equal(t, AuditAction("WALLET_REMOVE_ROLE"), AuditActionWalletRemoveRole)
	assert.Equal(t, AuditAction("ROLE_TOGGLE"), AuditActionRoleToggle)
	assert.Equal(t, AuditAction("CACHE_RESET"), AuditActionCacheReset)
}
