package integration

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"wallet-registry/internal/core/domain"
	"wallet-registry/internal/core/ports"

	"github.com/google/uuid"
)

// --- In-Memory Wallet Role Repo ---

type inMemoryRoleRepo struct {
	mu    sync.RWMutex
	roles map[uuid.UUID]domain.WalletRole
}

func newInMemoryRoleRepo() *inMemoryRoleRepo {
	return &inMemoryRoleRepo{roles: make(map[uuid.UUID]domain.WalletRole)}
}

func (r *inMemoryRoleRepo) Create(ctx context.Context, role *domain.WalletRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.roles {
		if strings.EqualFold(existing.Name, role.Name) {
			return fmt.Errorf("insert wallet role: %w", ports.ErrDuplicate)
		}
	}
	r.roles[role.ID] = *role
	return nil
}

func (r *inMemoryRoleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletRole, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[id]
	if !ok {
		return nil, nil
	}
	return &role, nil
}

func (r *inMemoryRoleRepo) GetByName(ctx context.Context, name string) (*domain.WalletRole, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, role := range r.roles {
		if strings.EqualFold(role.Name, name) {
			return &role, nil
		}
	}
	return nil, nil
}

func (r *inMemoryRoleRepo) List(ctx context.Context, isActive *bool) ([]domain.WalletRole, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.WalletRole{}
	for _, role := range r.roles {
		if isActive != nil && role.IsActive != *isActive {
			continue
		}
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *inMemoryRoleRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.WalletRole, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.WalletRole{}
	for _, id := range ids {
		if role, ok := r.roles[id]; ok {
			out = append(out, role)
		}
	}
	return out, nil
}

func (r *inMemoryRoleRepo) CountActiveByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, id := range ids {
		if role, ok := r.roles[id]; ok && role.IsActive {
			n++
		}
	}
	return n, nil
}

func (r *inMemoryRoleRepo) Update(ctx context.Context, role *domain.WalletRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[role.ID]; !ok {
		return fmt.Errorf("wallet role not found: %s", role.ID)
	}
	for id, existing := range r.roles {
		if id != role.ID && strings.EqualFold(existing.Name, role.Name) {
			return fmt.Errorf("update wallet role: %w", ports.ErrDuplicate)
		}
	}
	r.roles[role.ID] = *role
	return nil
}

func (r *inMemoryRoleRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.WalletRole, error) {
	return r.mutate(id, func(role *domain.WalletRole) { role.IsActive = active })
}

func (r *inMemoryRoleRepo) ToggleActive(ctx context.Context, id uuid.UUID) (*domain.WalletRole, error) {
	return r.mutate(id, func(role *domain.WalletRole) { role.IsActive = !role.IsActive })
}

func (r *inMemoryRoleRepo) Stats(ctx context.Context) (*domain.RoleStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := &domain.RoleStats{}
	for _, role := range r.roles {
		s.Total++
		if role.IsActive {
			s.Active++
		} else {
			s.Inactive++
		}
	}
	return s, nil
}

func (r *inMemoryRoleRepo) mutate(id uuid.UUID, fn func(*domain.WalletRole)) (*domain.WalletRole, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[id]
	if !ok {
		return nil, nil
	}
	fn(&role)
	role.UpdatedAt = time.Now().UTC()
	r.roles[id] = role
	return &role, nil
}

func (r *inMemoryRoleRepo) name(id uuid.UUID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[id]
	return role.Name, ok
}

// --- In-Memory Wallet Repo ---

// inMemoryWalletRepo applies every conditional update under one lock, which
// gives the same all-or-nothing behaviour as the single-statement SQL.
type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]domain.Wallet
	roles   *inMemoryRoleRepo
}

func newInMemoryWalletRepo(roles *inMemoryRoleRepo) *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]domain.Wallet), roles: roles}
}

func cloneWallet(w domain.Wallet) domain.Wallet {
	w.RoleIDs = append([]uuid.UUID(nil), w.RoleIDs...)
	w.Tags = append([]string{}, w.Tags...)
	meta := make(map[string]any, len(w.Metadata))
	for k, v := range w.Metadata {
		meta[k] = v
	}
	w.Metadata = meta
	w.Roles = nil
	return w
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.wallets {
		if existing.Address == w.Address {
			return fmt.Errorf("insert wallet: %w", ports.ErrDuplicate)
		}
	}
	r.wallets[w.ID] = cloneWallet(*w)
	return nil
}

func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	out := cloneWallet(w)
	return &out, nil
}

func (r *inMemoryWalletRepo) GetByAddress(ctx context.Context, address string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.Address == address {
			out := cloneWallet(w)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) List(ctx context.Context, params ports.WalletListParams) ([]domain.Wallet, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(params.Search)
	matched := []domain.Wallet{}
	for _, w := range r.wallets {
		if params.IsActive != nil && w.IsActive != *params.IsActive {
			continue
		}
		if params.RoleID != nil && !w.HasRole(*params.RoleID) {
			continue
		}
		if params.Currency != "" && (w.Currency == nil || *w.Currency != params.Currency) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(w.Label), search) &&
			!strings.Contains(strings.ToLower(w.Address), search) {
			continue
		}
		if params.Tag != "" && !containsString(w.Tags, params.Tag) {
			continue
		}
		matched = append(matched, cloneWallet(w))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := (params.Page - 1) * params.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *inMemoryWalletRepo) Update(ctx context.Context, id uuid.UUID, ch ports.WalletChanges) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	if ch.RoleIDs != nil && !sameIDs(w.RoleIDs, ch.ExpectedRoleIDs) {
		return nil, nil
	}
	if ch.Address != nil {
		for other, existing := range r.wallets {
			if other != id && existing.Address == *ch.Address {
				return nil, fmt.Errorf("update wallet: %w", ports.ErrDuplicate)
			}
		}
	}

	w = cloneWallet(w)
	if ch.Address != nil {
		w.Address = *ch.Address
	}
	if ch.Label != nil {
		w.Label = *ch.Label
	}
	if ch.RoleIDs != nil {
		w.RoleIDs = append([]uuid.UUID(nil), ch.RoleIDs...)
	}
	if ch.Currency != nil {
		w.Currency = ch.Currency.Value
	}
	if ch.Description != nil {
		w.Description = ch.Description.Value
	}
	if ch.Tags != nil {
		w.Tags = append([]string{}, ch.Tags...)
	}
	if ch.Metadata != nil {
		w.Metadata = ch.Metadata
	}
	if ch.IsActive != nil {
		w.IsActive = *ch.IsActive
	}
	w.UpdatedAt = time.Now().UTC()
	r.wallets[id] = w
	out := cloneWallet(w)
	return &out, nil
}

func (r *inMemoryWalletRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) (*domain.Wallet, error) {
	return r.mutateIf(id, func(w *domain.Wallet) bool {
		w.IsActive = active
		return true
	})
}

func (r *inMemoryWalletRepo) AddRole(ctx context.Context, id, roleID uuid.UUID) (*domain.Wallet, error) {
	return r.mutateIf(id, func(w *domain.Wallet) bool {
		if w.HasRole(roleID) || len(w.RoleIDs) >= domain.MaxWalletRoles {
			return false
		}
		w.RoleIDs = append(w.RoleIDs, roleID)
		return true
	})
}

func (r *inMemoryWalletRepo) RemoveRole(ctx context.Context, id, roleID uuid.UUID) (*domain.Wallet, error) {
	return r.mutateIf(id, func(w *domain.Wallet) bool {
		if !w.HasRole(roleID) || len(w.RoleIDs) <= 1 {
			return false
		}
		kept := w.RoleIDs[:0]
		for _, rid := range w.RoleIDs {
			if rid != roleID {
				kept = append(kept, rid)
			}
		}
		w.RoleIDs = kept
		return true
	})
}

func (r *inMemoryWalletRepo) TouchActivity(ctx context.Context, id uuid.UUID, at time.Time) (*domain.Wallet, error) {
	return r.mutateIf(id, func(w *domain.Wallet) bool {
		w.LastActivity = &at
		return true
	})
}

func (r *inMemoryWalletRepo) Stats(ctx context.Context) (*domain.WalletStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := &domain.WalletStats{ByRole: []domain.RoleWalletCount{}}
	counts := make(map[uuid.UUID]int64)
	for _, w := range r.wallets {
		s.Total++
		if !w.IsActive {
			s.Inactive++
			continue
		}
		s.Active++
		for _, rid := range w.RoleIDs {
			counts[rid]++
		}
	}
	for rid, n := range counts {
		name, ok := r.roles.name(rid)
		if !ok {
			continue
		}
		s.ByRole = append(s.ByRole, domain.RoleWalletCount{RoleID: rid, Name: name, Count: n})
	}
	sort.Slice(s.ByRole, func(i, j int) bool {
		if s.ByRole[i].Count != s.ByRole[j].Count {
			return s.ByRole[i].Count > s.ByRole[j].Count
		}
		return s.ByRole[i].Name < s.ByRole[j].Name
	})
	return s, nil
}

// mutateIf applies fn when the wallet exists; fn returning false leaves the
// wallet untouched and yields nil, like an UPDATE matching no rows.
func (r *inMemoryWalletRepo) mutateIf(id uuid.UUID, fn func(*domain.Wallet) bool) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	w = cloneWallet(w)
	if !fn(&w) {
		return nil, nil
	}
	w.UpdatedAt = time.Now().UTC()
	r.wallets[id] = w
	out := cloneWallet(w)
	return &out, nil
}

// sameIDs compares in order, like array equality in SQL.
func sameIDs(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// --- In-Memory Admin Repo ---

type inMemoryAdminRepo struct {
	mu     sync.RWMutex
	admins map[uuid.UUID]domain.Admin
}

func newInMemoryAdminRepo() *inMemoryAdminRepo {
	return &inMemoryAdminRepo{admins: make(map[uuid.UUID]domain.Admin)}
}

func (r *inMemoryAdminRepo) Create(ctx context.Context, a *domain.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.admins {
		if existing.Username == a.Username {
			return fmt.Errorf("insert admin: %w", ports.ErrDuplicate)
		}
	}
	r.admins[a.ID] = *a
	return nil
}

func (r *inMemoryAdminRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.admins[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *inMemoryAdminRepo) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.admins {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, nil
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func newInMemoryAuditRepo() *inMemoryAuditRepo {
	return &inMemoryAuditRepo{}
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *log)
	return nil
}

func (r *inMemoryAuditRepo) actions() []domain.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}
