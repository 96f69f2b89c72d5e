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
	"github.com/rs/zerolog"
)

// WalletRoleServiceImpl implements ports.WalletRoleService.
type WalletRoleServiceImpl struct {
	repo ports.WalletRoleRepository
	log  zerolog.Logger
}

// NewWalletRoleService creates a new WalletRoleServiceImpl.
func NewWalletRoleService(repo ports.WalletRoleRepository, log zerolog.Logger) *WalletRoleServiceImpl {
	return &WalletRoleServiceImpl{repo: repo, log: log}
}

// Create registers a new role. Names are unique ignoring case.
func (s *WalletRoleServiceImpl) Create(ctx context.Context, req ports.CreateWalletRoleRequest) (*domain.WalletRole, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}

	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("find role by name: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrRoleNameExists(name)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := time.Now().UTC()
	role := &domain.WalletRole{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		IsActive:    isActive,
		Color:       optionalString(req.Color),
		Icon:        optionalString(req.Icon),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, role); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			return nil, apperror.ErrRoleNameExists(name)
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create role: %w", err))
	}

	s.log.Info().Str("role_id", role.ID.String()).Str("name", role.Name).Msg("Wallet role created")
	return role, nil
}

// FindAll lists roles ordered by name, optionally filtered by is_active.
func (s *WalletRoleServiceImpl) FindAll(ctx context.Context, isActive *bool) ([]domain.WalletRole, error) {
	roles, err := s.repo.List(ctx, isActive)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list roles: %w", err))
	}
	return roles, nil
}

// FindActive lists the roles that can be assigned to wallets.
func (s *WalletRoleServiceImpl) FindActive(ctx context.Context) ([]domain.WalletRole, error) {
	active := true
	return s.FindAll(ctx, &active)
}

func (s *WalletRoleServiceImpl) FindOne(ctx context.Context, id string) (*domain.WalletRole, error) {
	roleID, err := parseID("role id", id)
	if err != nil {
		return nil, err
	}

	role, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("find role: %w", err))
	}
	if role == nil {
		return nil, apperror.ErrNotFound("wallet role")
	}
	return role, nil
}

// Update applies a partial update. A rename re-checks uniqueness against other roles.
func (s *WalletRoleServiceImpl) Update(ctx context.Context, id string, req ports.UpdateWalletRoleRequest) (*domain.WalletRole, error) {
	role, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("name must not be empty")
		}
		if name != role.Name {
			other, err := s.repo.GetByName(ctx, name)
			if err != nil {
				return nil, apperror.ErrDatabaseError(fmt.Errorf("find role by name: %w", err))
			}
			if other != nil && other.ID != role.ID {
				return nil, apperror.ErrRoleNameExists(name)
			}
			role.Name = name
		}
	}
	if req.Description != nil {
		role.Description = strings.TrimSpace(*req.Description)
	}
	if req.IsActive != nil {
		role.IsActive = *req.IsActive
	}
	// An empty color or icon clears the field.
	if req.Color != nil {
		role.Color = optionalString(req.Color)
	}
	if req.Icon != nil {
		role.Icon = optionalString(req.Icon)
	}
	role.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, role); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			return nil, apperror.ErrRoleNameExists(role.Name)
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("update role: %w", err))
	}
	return role, nil
}

// Remove deactivates a role. Wallets that already carry it keep the reference.
func (s *WalletRoleServiceImpl) Remove(ctx context.Context, id string) (*domain.WalletRole, error) {
	roleID, err := parseID("role id", id)
	if err != nil {
		return nil, err
	}

	role, err := s.repo.SetActive(ctx, roleID, false)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("deactivate role: %w", err))
	}
	if role == nil {
		return nil, apperror.ErrNotFound("wallet role")
	}

	s.log.Info().Str("role_id", role.ID.String()).Msg("Wallet role deactivated")
	return role, nil
}

// ToggleActive flips is_active and returns the stored result.
func (s *WalletRoleServiceImpl) ToggleActive(ctx context.Context, id string) (*domain.WalletRole, error) {
	roleID, err := parseID("role id", id)
	if err != nil {
		return nil, err
	}

	role, err := s.repo.ToggleActive(ctx, roleID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("toggle role: %w", err))
	}
	if role == nil {
		return nil, apperror.ErrNotFound("wallet role")
	}
	return role, nil
}

func (s *WalletRoleServiceImpl) GetStats(ctx context.Context) (*domain.RoleStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("role stats: %w", err))
	}
	return stats, nil
}
