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

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	roleRepo   ports.WalletRoleRepository
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(walletRepo ports.WalletRepository, roleRepo ports.WalletRoleRepository, log zerolog.Logger) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		roleRepo:   roleRepo,
		log:        log,
	}
}

// Create registers a wallet. The address must be unused and every role must
// exist and be active.
func (s *WalletServiceImpl) Create(ctx context.Context, req ports.CreateWalletRequest) (*domain.Wallet, error) {
	address := strings.TrimSpace(req.Address)
	label := strings.TrimSpace(req.Label)
	if address == "" {
		return nil, apperror.Validation("address is required")
	}
	if label == "" {
		return nil, apperror.Validation("label is required")
	}

	roleIDs, err := s.resolveRoles(ctx, req.RoleIDs)
	if err != nil {
		return nil, err
	}
	if len(roleIDs) > domain.MaxWalletRoles {
		return nil, apperror.ErrRoleLimit(domain.MaxWalletRoles)
	}

	existing, err := s.walletRepo.GetByAddress(ctx, address)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("find wallet by address: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrAddressExists(address)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:          uuid.New(),
		Address:     address,
		Label:       label,
		RoleIDs:     roleIDs,
		Currency:    normalizeCurrency(req.Currency),
		IsActive:    isActive,
		Description: optionalString(req.Description),
		Tags:        normalizeTags(req.Tags),
		Metadata:    metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			return nil, apperror.ErrAddressExists(address)
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("address", wallet.Address).
		Int("roles", len(wallet.RoleIDs)).
		Msg("Wallet created")

	return s.withRoles(ctx, wallet)
}

// FindAll lists wallets newest first. Page defaults to 1 and limit to 20 (max 100).
func (s *WalletServiceImpl) FindAll(ctx context.Context, params ports.WalletListParams) ([]domain.Wallet, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = defaultPageLimit
	}
	if params.Limit > maxPageLimit {
		params.Limit = maxPageLimit
	}
	params.Currency = strings.ToUpper(strings.TrimSpace(params.Currency))
	params.Search = strings.TrimSpace(params.Search)
	params.Tag = strings.TrimSpace(params.Tag)

	wallets, total, err := s.walletRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(fmt.Errorf("list wallets: %w", err))
	}

	ptrs := make([]*domain.Wallet, len(wallets))
	for i := range wallets {
		ptrs[i] = &wallets[i]
	}
	if err := s.populateRoles(ctx, ptrs...); err != nil {
		return nil, 0, err
	}
	return wallets, total, nil
}

func (s *WalletServiceImpl) FindOne(ctx context.Context, id string) (*domain.Wallet, error) {
	wallet, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withRoles(ctx, wallet)
}

func (s *WalletServiceImpl) FindByAddress(ctx context.Context, address string) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByAddress(ctx, strings.TrimSpace(address))
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("find wallet by address: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return s.withRoles(ctx, wallet)
}

// Update applies a partial update. Only the fields present in req are
// written, so concurrent AddRole, RemoveRole or Remove calls are not reverted.
// A role replacement applies only while the stored roles still match what
// was read; otherwise the caller gets a conflict and must reload.
func (s *WalletServiceImpl) Update(ctx context.Context, id string, req ports.UpdateWalletRequest) (*domain.Wallet, error) {
	wallet, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	var changes ports.WalletChanges
	if req.Address != nil {
		address := strings.TrimSpace(*req.Address)
		if address == "" {
			return nil, apperror.Validation("address must not be empty")
		}
		if address != wallet.Address {
			other, err := s.walletRepo.GetByAddress(ctx, address)
			if err != nil {
				return nil, apperror.ErrDatabaseError(fmt.Errorf("find wallet by address: %w", err))
			}
			if other != nil && other.ID != wallet.ID {
				return nil, apperror.ErrAddressExists(address)
			}
			changes.Address = &address
		}
	}
	if req.Label != nil {
		label := strings.TrimSpace(*req.Label)
		if label == "" {
			return nil, apperror.Validation("label must not be empty")
		}
		changes.Label = &label
	}
	if req.RoleIDs != nil {
		roleIDs, err := s.resolveRoles(ctx, req.RoleIDs)
		if err != nil {
			return nil, err
		}
		if len(roleIDs) > domain.MaxWalletRoles {
			return nil, apperror.ErrRoleLimit(domain.MaxWalletRoles)
		}
		changes.RoleIDs = roleIDs
		changes.ExpectedRoleIDs = wallet.RoleIDs
		if changes.ExpectedRoleIDs == nil {
			changes.ExpectedRoleIDs = []uuid.UUID{}
		}
	}
	if req.Currency != nil {
		changes.Currency = &ports.NullableString{Value: normalizeCurrency(req.Currency)}
	}
	if req.Description != nil {
		changes.Description = &ports.NullableString{Value: optionalString(req.Description)}
	}
	if req.Tags != nil {
		changes.Tags = normalizeTags(req.Tags)
	}
	if req.Metadata != nil {
		changes.Metadata = req.Metadata
	}
	if req.IsActive != nil {
		changes.IsActive = req.IsActive
	}

	if changes.Empty() {
		return s.withRoles(ctx, wallet)
	}

	updated, err := s.walletRepo.Update(ctx, wallet.ID, changes)
	if err != nil {
		if errors.Is(err, ports.ErrDuplicate) && changes.Address != nil {
			return nil, apperror.ErrAddressExists(*changes.Address)
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("update wallet: %w", err))
	}
	if updated == nil {
		if changes.RoleIDs == nil {
			return nil, apperror.ErrNotFound("wallet")
		}
		current, err := s.walletRepo.GetByID(ctx, wallet.ID)
		if err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("find wallet: %w", err))
		}
		if current == nil {
			return nil, apperror.ErrNotFound("wallet")
		}
		return nil, apperror.ErrRolesChanged()
	}
	return s.withRoles(ctx, updated)
}

// Remove deactivates a wallet; the row is kept.
func (s *WalletServiceImpl) Remove(ctx context.Context, id string) (*domain.Wallet, error) {
	walletID, err := parseID("wallet id", id)
	if err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.SetActive(ctx, walletID, false)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("deactivate wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	s.log.Info().Str("wallet_id", wallet.ID.String()).Msg("Wallet deactivated")
	return s.withRoles(ctx, wallet)
}

// AddRole assigns an active role to a wallet, up to domain.MaxWalletRoles.
func (s *WalletServiceImpl) AddRole(ctx context.Context, id string, roleID string) (*domain.Wallet, error) {
	walletID, err := parseID("wallet id", id)
	if err != nil {
		return nil, err
	}
	rid, err := parseID("role id", roleID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureActiveRoles(ctx, []uuid.UUID{rid}); err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.AddRole(ctx, walletID, rid)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("add wallet role: %w", err))
	}
	if wallet == nil {
		current, err := s.walletRepo.GetByID(ctx, walletID)
		if err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("find wallet: %w", err))
		}
		switch {
		case current == nil:
			return nil, apperror.ErrNotFound("wallet")
		case current.HasRole(rid):
			return nil, apperror.ErrRoleAlreadyAssigned()
		default:
			return nil, apperror.ErrRoleLimit(domain.MaxWalletRoles)
		}
	}
	return s.withRoles(ctx, wallet)
}

// RemoveRole unassigns a role. The repository applies the change only while
// the role is assigned and is not the last one; when it declines, the
// current row tells which rule failed.
func (s *WalletServiceImpl) RemoveRole(ctx context.Context, id string, roleID string) (*domain.Wallet, error) {
	walletID, err := parseID("wallet id", id)
	if err != nil {
		return nil, err
	}
	rid, err := parseID("role id", roleID)
	if err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.RemoveRole(ctx, walletID, rid)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("remove wallet role: %w", err))
	}
	if wallet != nil {
		return s.withRoles(ctx, wallet)
	}

	current, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("find wallet: %w", err))
	}
	switch {
	case current == nil:
		return nil, apperror.ErrNotFound("wallet")
	case !current.HasRole(rid):
		return nil, apperror.ErrRoleNotAssigned()
	default:
		return nil, apperror.ErrLastRole()
	}
}

// TouchActivity stamps last_activity with the current time.
func (s *WalletServiceImpl) TouchActivity(ctx context.Context, id string) (*domain.Wallet, error) {
	walletID, err := parseID("wallet id", id)
	if err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.TouchActivity(ctx, walletID, time.Now().UTC())
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("touch wallet activity: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return s.withRoles(ctx, wallet)
}

func (s *WalletServiceImpl) GetStats(ctx context.Context) (*domain.WalletStats, error) {
	stats, err := s.walletRepo.Stats(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("wallet stats: %w", err))
	}
	return stats, nil
}

func (s *WalletServiceImpl) get(ctx context.Context, id string) (*domain.Wallet, error) {
	walletID, err := parseID("wallet id", id)
	if err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("find wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

// resolveRoles parses, de-duplicates and validates a role id list.
func (s *WalletServiceImpl) resolveRoles(ctx context.Context, raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := parseID("role id", r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	ids = domain.UniqueIDs(ids)
	if len(ids) == 0 {
		return nil, apperror.Validation("at least one role is required")
	}

	if err := s.ensureActiveRoles(ctx, ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *WalletServiceImpl) ensureActiveRoles(ctx context.Context, ids []uuid.UUID) error {
	count, err := s.roleRepo.CountActiveByIDs(ctx, ids)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("count active roles: %w", err))
	}
	if count != int64(len(ids)) {
		return apperror.ErrInvalidRoles()
	}
	return nil
}

func (s *WalletServiceImpl) withRoles(ctx context.Context, wallet *domain.Wallet) (*domain.Wallet, error) {
	if err := s.populateRoles(ctx, wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

// populateRoles resolves role summaries for all wallets with a single query.
// Ids that no longer resolve are skipped.
func (s *WalletServiceImpl) populateRoles(ctx context.Context, wallets ...*domain.Wallet) error {
	var ids []uuid.UUID
	for _, w := range wallets {
		ids = append(ids, w.RoleIDs...)
	}
	ids = domain.UniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}

	roles, err := s.roleRepo.ListByIDs(ctx, ids)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("load wallet roles: %w", err))
	}
	byID := make(map[uuid.UUID]domain.RoleSummary, len(roles))
	for i := range roles {
		byID[roles[i].ID] = roles[i].Summary()
	}

	for _, w := range wallets {
		w.Roles = make([]domain.RoleSummary, 0, len(w.RoleIDs))
		for _, id := range w.RoleIDs {
			if summary, ok := byID[id]; ok {
				w.Roles = append(w.Roles, summary)
			}
		}
	}
	return nil
}

func normalizeCurrency(c *string) *string {
	v := optionalString(c)
	if v == nil {
		return nil
	}
	upper := strings.ToUpper(*v)
	return &upper
}

// normalizeTags trims tags and drops blanks and repeats. Never returns nil.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
