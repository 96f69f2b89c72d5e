package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"wallet-registry/internal/core/domain"
	"wallet-registry/internal/core/ports"
	"wallet-registry/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupRoleService(t *testing.T) (*WalletRoleServiceImpl, *mocks.MockWalletRoleRepository) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockWalletRoleRepository(ctrl)
	return NewWalletRoleService(repo, newTestLogger()), repo
}

func testRole(name string, active bool) *domain.WalletRole {
	now := time.Now().UTC()
	return &domain.WalletRole{
		ID:        uuid.New(),
		Name:      name,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func boolPtr(b bool) *bool { return &b }
func strPtr(s string) *string { return &s }

func TestWalletRoleService_Create_Success(t *testing.T) {
	svc, repo := setupRoleService(t)
	ctx := context.Background()

	repo.EXPECT().GetByName(ctx, "treasury").Return(nil, nil)
	repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	role, err := svc.Create(ctx, ports.CreateWalletRoleRequest{
		Name:        "  treasury ",
		Description: "Treasury wallets",
		Color:       strPtr("#112233"),
		Icon:        strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "treasury", role.Name)
	assert.True(t, role.IsActive, "is_active defaults to true")
	assert.Equal(t, "#112233", *role.Color)
	assert.Nil(t, role.Icon)
	assert.NotEqual(t, uuid.Nil, role.ID)
}

func TestWalletRoleService_Create_ExplicitInactive(t *testing.T) {
	svc, repo := setupRoleService(t)
	ctx := context.Background()

	repo.EXPECT().GetByName(ctx, "archive").Return(nil, nil)
	repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	role, err := svc.Create(ctx, ports.CreateWalletRoleRequest{Name: "archive", IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, role.IsActive)
}

func TestWalletRoleService_Create_DuplicateName(t *testing.T) {
	svc, repo := setupRoleService(t)
	ctx := context.Background()

	repo.EXPECT().GetByName(ctx, "Treasury").Return(testRole("treasury", true), nil)

	_, err := svc.Create(ctx, ports.CreateWalletRoleRequest{Name: "Treasury"})
	assertAppErrorCode(t, err, "ROLE_001")
}

func TestWalletRoleService_Create_DuplicateRace(t *testing.T) {
	svc, repo := setupRoleService(t)
	ctx := context.Background()

	repo.EXPECT().GetByName(ctx, "treasury").Return(nil, nil)
	repo.EXPECT().Create(ctx, gomock.Any()).Return(fmt.Errorf("insert wallet role: %w", ports.ErrDuplicate))

	_, err := svc.Create(ctx, ports.CreateWalletRoleRequest{Name: "treasury"})
	assertAppErrorCode(t, err, "ROLE_001")
}

func TestWalletRoleService_Create_BlankName(t *testing.T) {
	svc, _ := setupRoleService(t)

	_, err := svc.Create(context.Background(), ports.CreateWalletRoleRequest{Name: "   "})
	assertAppErrorCode(t, err, "VAL_001")
}

func TestWalletRoleService_FindActive(t *testing.T) {
	svc, repo := setupRoleService(t)
	ctx := context.Background()

	repo.EXPECT().List(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, isActive *bool) ([]domain.WalletRole, error) {
			require.NotNil(t, isActive)
			assert.True(t, *isActive)
			return []domain.WalletRole{*testRole("a", true)}, nil
		},
	)

	roles, err := svc.FindActive(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 1)
}

func TestWalletRoleService_FindOne(t *testing.T) {
	svc, repo := setupRoleService(t)
	ctx := context.Background()
	role := testRole("treasury", true)

	repo.EXPECT().GetByID(ctx, role.ID).Return(role, nil)

	got, err := svc.FindOne(ctx, role.ID.String())
	require.NoError(t, err)
	assert.Equal(t, role, got)
}

func TestWalletRoleService_FindOne_InvalidID(t *testing.T) {
	svc, _ := setupRoleService(t)

	_, err := svc.FindOne(context.Background(), "not-a-uuid")
	assertAppErrorCode(t, err, "VAL_002")
}

func TestWalletRoleService_FindOne_NotFound(t *testing.T) {
	svc, repo := setupRoleService(t)
	ctx := context.Background()
	id := uuid.New()

	repo.EXPECT().GetByID(ctx, id).Return(nil, nil)

	_, err := svc.FindOne(ctx, id.String())
	assertAppErrorCode(t, err, "NOT_FOUND")
}

func TestWalletRoleService_Update_RenameConflict(t *testing.T) {
	svc, repo := setupRoleService(t)
	ctx := context.Background()
	role := testRole("treasury", true)
	other := testRole("fees", true)

	repo.EXPECT().GetByID(ctx, role.ID).Return(role, nil)
	repo.EXPECT().GetByName(ctx, "fees").Return(other, nil)

	_, err := svc.Update(ctx, role.ID.String(), ports.UpdateWalletRoleRequest{Name: strPtr("fees")})
	assertAppErrorCode(t, err, "ROLE_001")
}

func TestWalletRoleService_Update_RecaseOwnName(t *testing.T) {
	svc, repo := setupRoleService(t)
	ctx := context.Background()
	role := testRole("treasury", true)
	stored := *role

	repo.EXPECT().GetByID(ctx, role.ID).Return(role, nil)
	repo.EXPECT().GetByName(ctx, "Treasury").Return(&stored, nil)
	repo.EXPECT().Update(ctx, gomock.Any()).Return(nil)

	got, err := svc.Update(ctx, role.ID.String(), ports.UpdateWalletRoleRequest{
		Name:  strPtr("Treasury"),
		Color: strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "Treasury", got.Name)
	assert.Nil(t, got.Color)
}

func TestWalletRoleService_Update_PartialFields(t *testing.T) {
	svc, repo := setupRoleService(t)
	ctx := context.Background()
	role := testRole("treasury", true)
	role.Description = "old"

	repo.EXPECT().GetByID(ctx, role.ID).Return(role, nil)
	repo.EXPECT().Update(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, r *domain.WalletRole) error {
			assert.Equal(t, "treasury", r.Name)
			assert.Equal(t, "new", r.Description)
			assert.False(t, r.IsActive)
			return nil
		},
	)

	_, err := svc.Update(ctx, role.ID.String(), ports.UpdateWalletRoleRequest{
		Description: strPtr(" new "),
		IsActive:    boolPtr(false),
	})
	require.NoError(t, err)
}

func TestWalletRoleService_Remove(t *testing.T) {
	svc, repo := setupRoleService(t)
	ctx := context.Background()
	role := testRole("treasury", false)

	repo.EXPECT().SetActive(ctx, role.ID, false).Return(role, nil)

	got, err := svc.Remove(ctx, role.ID.String())
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestWalletRoleService_Remove_NotFound(t *testing.T) {
	svc, repo := setupRoleService(t)
	ctx := context.Background()
	id := uuid.New()

	repo.EXPECT().SetActive(ctx, id, false).Return(nil, nil)

	_, err := svc.Remove(ctx, id.String())
	assertAppErrorCode(t, err, "NOT_FOUND")
}

func TestWalletRoleService_ToggleActive(t *testing.T) {
	svc, repo := setupRoleService(t)
	ctx := context.Background()
	role := testRole("treasury", false)

	repo.EXPECT().ToggleActive(ctx, role.ID).Return(role, nil)

	got, err := svc.ToggleActive(ctx, role.ID.String())
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestWalletRoleService_GetStats(t *testing.T) {
	svc, repo := setupRoleService(t)
	ctx := context.Background()

	repo.EXPECT().Stats(ctx).Return(&domain.RoleStats{Total: 4, Active: 3, Inactive: 1}, nil)

	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats.Total, stats.Active+stats.Inactive)
}

func TestWalletRoleService_GetStats_Error(t *testing.T) {
	svc, repo := setupRoleService(t)
	ctx := context.Background()

	repo.EXPECT().Stats(ctx).Return(nil, errors.New("db down"))

	_, err := svc.GetStats(ctx)
	assertAppErrorCode(t, err, "SYS_001")
}
