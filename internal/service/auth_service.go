package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wallet-registry/internal/core/domain"
	"wallet-registry/internal/core/ports"
	"wallet-registry/pkg/apperror"

	"github.com/google/uuid"
)

const minAdminPasswordLen = 8

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	adminRepo ports.AdminRepository
	hashSvc   ports.HashService
	tokenSvc  ports.TokenService
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	adminRepo ports.AdminRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		adminRepo: adminRepo,
		hashSvc:   hashSvc,
		tokenSvc:  tokenSvc,
	}
}

// Login validates credentials and returns a JWT token.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find admin: %w", err))
	}
	if admin == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, admin.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	if !admin.IsActive {
		return "", time.Time{}, apperror.ErrAccountDisabled()
	}

	token, expiry, err := s.tokenSvc.Generate(admin.ID, admin.Username)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return token, expiry, nil
}

// EnsureAdmin creates the console account on first start. It reports
// whether an account was created; an existing account is left untouched.
func (s *AuthServiceImpl) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, apperror.Validation("admin username is required")
	}

	existing, err := s.adminRepo.GetByUsername(ctx, username)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("find admin: %w", err))
	}
	if existing != nil {
		return false, nil
	}

	if len(password) < minAdminPasswordLen {
		return false, apperror.Validation(fmt.Sprintf("admin password must be at least %d characters", minAdminPasswordLen))
	}

	hash, err := s.hashSvc.Hash(password)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	admin := &domain.Admin{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		// Another instance created it first.
		if errors.Is(err, ports.ErrDuplicate) {
			return false, nil
		}
		return false, apperror.InternalError(fmt.Errorf("create admin: %w", err))
	}
	return true, nil
}
