package dto

import (
	"time"

	"wallet-registry/internal/core/ports"
)

// LoginRequest is the request body for admin login.
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50" sanitize:"trim"`
	Password string `json:"password" binding:"required,max=128" sanitize:"-"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresAt int64  `json:"expires_at"` // Unix timestamp
}

// NewLoginResponse builds a bearer token response.
func NewLoginResponse(token string, expiry time.Time) LoginResponse {
	return LoginResponse{Token: token, TokenType: "Bearer", ExpiresAt: expiry.Unix()}
}

// CreateWalletRoleRequest is the request body for role creation.
type CreateWalletRoleRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=50" sanitize:"trim"`
	Description string  `json:"description" binding:"max=255" sanitize:"trim"`
	IsActive    *bool   `json:"is_active"`
	Color       *string `json:"color" binding:"omitempty,hex_color"`
	Icon        *string `json:"icon" binding:"omitempty,max=50" sanitize:"trim"`
}

func (r CreateWalletRoleRequest) ToPort() ports.CreateWalletRoleRequest {
	return ports.CreateWalletRoleRequest{
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
		Color:       r.Color,
		Icon:        r.Icon,
	}
}

// UpdateWalletRoleRequest is a partial update. An empty color or icon clears it.
type UpdateWalletRoleRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=2,max=50" sanitize:"trim"`
	Description *string `json:"description" binding:"omitempty,max=255" sanitize:"trim"`
	IsActive    *bool   `json:"is_active"`
	Color       *string `json:"color" binding:"omitempty,hex_color"`
	Icon        *string `json:"icon" binding:"omitempty,max=50" sanitize:"trim"`
}

func (r UpdateWalletRoleRequest) ToPort() ports.UpdateWalletRoleRequest {
	return ports.UpdateWalletRoleRequest{
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
		Color:       r.Color,
		Icon:        r.Icon,
	}
}

// CreateWalletRequest is the request body for wallet registration.
type CreateWalletRequest struct {
	Address     string         `json:"address" binding:"required,solana_address"`
	Label       string         `json:"label" binding:"required,min=1,max=100" sanitize:"trim"`
	RoleIDs     []string       `json:"role_ids" binding:"required,min=1,max=20,dive,uuid"`
	Currency    *string        `json:"currency" binding:"omitempty,currency_code"`
	Description *string        `json:"description" binding:"omitempty,max=500" sanitize:"trim"`
	Tags        []string       `json:"tags" binding:"omitempty,max=20,dive,max=50,safe_id"`
	Metadata    map[string]any `json:"metadata"`
	IsActive    *bool          `json:"is_active"`
}

func (r CreateWalletRequest) ToPort() ports.CreateWalletRequest {
	return ports.CreateWalletRequest{
		Address:     r.Address,
		Label:       r.Label,
		RoleIDs:     r.RoleIDs,
		Currency:    r.Currency,
		Description: r.Description,
		Tags:        r.Tags,
		Metadata:    r.Metadata,
		IsActive:    r.IsActive,
	}
}

// UpdateWalletRequest is a partial update. Omitted fields are left unchanged;
// role_ids, when present, replaces the whole list and must not be empty.
type UpdateWalletRequest struct {
	Address     *string        `json:"address" binding:"omitempty,solana_address"`
	Label       *string        `json:"label" binding:"omitempty,min=1,max=100" sanitize:"trim"`
	RoleIDs     []string       `json:"role_ids" binding:"omitempty,min=1,max=20,dive,uuid"`
	Currency    *string        `json:"currency" binding:"omitempty,currency_code"`
	Description *string        `json:"description" binding:"omitempty,max=500" sanitize:"trim"`
	Tags        []string       `json:"tags" binding:"omitempty,max=20,dive,max=50,safe_id"`
	Metadata    map[string]any `json:"metadata"`
	IsActive    *bool          `json:"is_active"`
}

func (r UpdateWalletRequest) ToPort() ports.UpdateWalletRequest {
	return ports.UpdateWalletRequest{
		Address:     r.Address,
		Label:       r.Label,
		RoleIDs:     r.RoleIDs,
		Currency:    r.Currency,
		Description: r.Description,
		Tags:        r.Tags,
		Metadata:    r.Metadata,
		IsActive:    r.IsActive,
	}
}

// AddWalletRoleRequest is the request body for assigning a role to a wallet.
type AddWalletRoleRequest struct {
	RoleID string `json:"role_id" binding:"required,uuid"`
}

// ListWalletsQuery binds the wallet list query string.
type ListWalletsQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	IsActive *bool  `form:"is_active"`
	RoleID   string `form:"role_id" binding:"omitempty,uuid"`
	Currency string `form:"currency" binding:"omitempty,currency_code"`
	Search   string `form:"search" binding:"omitempty,max=100"`
	Tag      string `form:"tag" binding:"omitempty,max=50,safe_id"`
}

// ListWalletRolesQuery binds the role list query string.
type ListWalletRolesQuery struct {
	IsActive *bool `form:"is_active"`
}

// CacheResetResponse reports how many cache keys were removed.
type CacheResetResponse struct {
	Pattern string `json:"pattern"`
	Removed int64  `json:"removed"`
}
