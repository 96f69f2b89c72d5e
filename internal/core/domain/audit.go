package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionLogin            AuditAction = "LOGIN"
	AuditActionRoleCreate       AuditAction = "ROLE_CREATE"
	AuditActionRoleUpdate       AuditAction = "ROLE_UPDATE"
	AuditActionRoleToggle       AuditAction = "ROLE_TOGGLE"
	AuditActionRoleDeactivate   AuditAction = "ROLE_DEACTIVATE"
	AuditActionWalletCreate     AuditAction = "WALLET_CREATE"
	AuditActionWalletUpdate     AuditAction = "WALLET_UPDATE"
	AuditActionWalletDeactivate AuditAction = "WALLET_DEACTIVATE"
	AuditActionWalletAddRole    AuditAction = "WALLET_ADD_ROLE"
	AuditActionWalletRemoveRole AuditAction = "WALLET_REMOVE_ROLE"
	AuditActionWalletActivity   AuditAction = "WALLET_ACTIVITY"
	AuditActionCacheReset       AuditAction = "CACHE_RESET"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	AdminID      *uuid.UUID  `json:"admin_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
