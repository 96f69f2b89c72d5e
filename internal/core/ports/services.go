package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"wallet-registry/internal/core/domain"

	"github.com/google/uuid"
)

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(adminID uuid.UUID, username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	AdminID  uuid.UUID
	Username string
}

// ResponseCache is the Redis-backed read-through cache for GET endpoints.
type ResponseCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Generation returns the invalidation counter of a namespace.
	Generation(ctx context.Context, namespace string) (int64, error)
	// BumpGeneration advances the counter; fills started before it are dropped.
	BumpGeneration(ctx context.Context, namespace string) error
	// SetIfGeneration stores value only while namespace is still at gen.
	SetIfGeneration(ctx context.Context, namespace string, gen int64, key string, value []byte, ttl time.Duration) (bool, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
	DelDirect(ctx context.Context, keys ...string) error
	// Reset removes every key matching pattern and returns how many were removed.
	Reset(ctx context.Context, pattern string) (int64, error)
}

// RateLimiter counts requests per key inside a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// --- Service Ports (Business Logic) ---

// WalletRoleService defines wallet role management.
// IDs arrive as strings; malformed IDs are rejected with VAL_002.
type WalletRoleService interface {
	Create(ctx context.Context, req CreateWalletRoleRequest) (*domain.WalletRole, error)
	FindAll(ctx context.Context, isActive *bool) ([]domain.WalletRole, error)
	FindActive(ctx context.Context) ([]domain.WalletRole, error)
	FindOne(ctx context.Context, id string) (*domain.WalletRole, error)
	Update(ctx context.Context, id string, req UpdateWalletRoleRequest) (*domain.WalletRole, error)
	Remove(ctx context.Context, id string) (*domain.WalletRole, error)
	ToggleActive(ctx context.Context, id string) (*domain.WalletRole, error)
	GetStats(ctx context.Context) (*domain.RoleStats, error)
}

// CreateWalletRoleRequest holds validated input for role creation.
type CreateWalletRoleRequest struct {
	Name        string
	Description string
	IsActive    *bool // nil = true
	Color       *string
	Icon        *string
}

// UpdateWalletRoleRequest is a partial update; nil fields are left unchanged.
type UpdateWalletRoleRequest struct {
	Name        *string
	Description *string
	IsActive    *bool
	Color       *string
	Icon        *string
}

// WalletService defines wallet management.
type WalletService interface {
	Create(ctx context.Context, req CreateWalletRequest) (*domain.Wallet, error)
	FindAll(ctx context.Context, params WalletListParams) ([]domain.Wallet, int64, error)
	FindOne(ctx context.Context, id string) (*domain.Wallet, error)
	FindByAddress(ctx context.Context, address string) (*domain.Wallet, error)
	Update(ctx context.Context, id string, req UpdateWalletRequest) (*domain.Wallet, error)
	Remove(ctx context.Context, id string) (*domain.Wallet, error)
	AddRole(ctx context.Context, id string, roleID string) (*domain.Wallet, error)
	RemoveRole(ctx context.Context, id string, roleID string) (*domain.Wallet, error)
	TouchActivity(ctx context.Context, id string) (*domain.Wallet, error)
	GetStats(ctx context.Context) (*domain.WalletStats, error)
}

// CreateWalletRequest holds validated input for wallet creation.
type CreateWalletRequest struct {
	Address     string
	Label       string
	RoleIDs     []string
	Currency    *string
	Description *string
	Tags        []string
	Metadata    map[string]any
	IsActive    *bool // nil = true
}

// UpdateWalletRequest is a partial update; nil fields are left unchanged.
type UpdateWalletRequest struct {
	Address     *string
	Label       *string
	RoleIDs     []string // nil = unchanged, empty = rejected
	Currency    *string
	Description *string
	Tags        []string
	Metadata    map[string]any
	IsActive    *bool
}

// AuthService defines admin authentication.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
	// EnsureAdmin creates the admin account if it does not exist yet.
	EnsureAdmin(ctx context.Context, username, password string) (bool, error)
}

// AuditService records audited actions.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
	// Drain waits for in-flight writes until ctx is done.
	Drain(ctx context.Context) error
}
